package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/resolve"
	"github.com/minhson226/qrcode-builder-v2/security"
)

// RedirectQR handles GET /r/{code}?password=
//
// Status contract: 404 unknown/inactive code or missing target, 410 expired,
// 401 password required or wrong, 429 attempt budget exhausted (with a
// Retry-After hint), 302 with Location on success. Storage timeouts become
// 500 so the caller can retry; the request never hangs past its deadline.
func (h *QRHandler) RedirectQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	vars := mux.Vars(r)
	code := vars["code"]

	ip := security.ClientIP(r)
	req := resolve.Request{
		Code:      code,
		Password:  r.URL.Query().Get("password"),
		IPHash:    security.HashIdentity(ip),
		UserAgent: r.Header.Get("User-Agent"),
	}

	destination, err := h.service.Redirect(ctx, req)
	if err != nil {
		h.writeRedirectFailure(w, code, err)
		return
	}

	http.Redirect(w, r, destination, http.StatusFound)
}

// writeRedirectFailure converts a resolution failure into its definite status.
func (h *QRHandler) writeRedirectFailure(w http.ResponseWriter, code string, err error) {
	var rateLimited *resolve.RateLimitedError

	switch {
	case errors.Is(err, resolve.ErrNotFound):
		log.Warn().Str("code", code).Msg("Code not found")
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "")

	case errors.Is(err, resolve.ErrNoTarget):
		log.Warn().Str("code", code).Msg("No target configured")
		SendJSONError(w, http.StatusNotFound, errors.New("no target URL configured"), "")

	case errors.Is(err, resolve.ErrExpired):
		log.Info().Str("code", code).Msg("Code expired")
		SendJSONError(w, http.StatusGone, errors.New("QR code has expired"), "")

	case errors.Is(err, resolve.ErrPasswordRequired):
		SendJSONError(w, http.StatusUnauthorized, errors.New("password required"), "")

	case errors.Is(err, resolve.ErrInvalidPassword):
		SendJSONError(w, http.StatusUnauthorized, errors.New("invalid password"), "")

	case errors.As(err, &rateLimited):
		seconds := int(rateLimited.RetryAfter / time.Second)
		if rateLimited.RetryAfter%time.Second > 0 {
			seconds++
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		SendJSONError(w, http.StatusTooManyRequests, errors.New("too many failed attempts"), "Please try again later.")

	default:
		log.Error().Err(err).Str("code", code).Msg("Resolution failed")
		SendJSONError(w, http.StatusInternalServerError, errors.New("failed to resolve QR code"), "Transient failure, please retry.")
	}
}
