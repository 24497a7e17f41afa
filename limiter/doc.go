// Package limiter bounds password attempts against protected QR codes.
//
// The budget is a fixed window: the first attempt for a (source, code) pair
// opens a window and every further attempt inside it is counted, whether the
// password turns out right or wrong. When the count reaches the configured
// maximum, attempts are rejected until the window expires; the counter never
// grows past the maximum.
//
// # Backends
//
//   - MemoryLimiter: in-process, sharded mutex map. State is local to the
//     process, so it only enforces a global budget in single-instance
//     deployments. Expired windows are dropped lazily on access and by a
//     periodic sweep.
//
//   - RedisLimiter: distributed, backed by a Lua script that performs the
//     read-check-increment cycle atomically inside Redis. Window expiry rides
//     on key TTL, so idle keys reclaim themselves.
//
// # Fixed window vs alternatives
//
// A fixed window admits a boundary burst: with a budget of 5 per minute, an
// attacker can spend 5 attempts at 0:59 and 5 more at 1:01. This is an
// accepted tradeoff for the simplicity of a single counter per key; a
// sliding window or token bucket would smooth the boundary at the cost of
// per-key timestamp state. For a password gate the absolute attempt count
// stays small either way.
package limiter
