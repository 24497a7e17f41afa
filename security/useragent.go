package security

import "strings"

// DeviceFamily normalizes a raw User-Agent into a coarse device class for
// analytics. Unrecognized agents count as Desktop.
func DeviceFamily(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		return "Tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone"):
		return "Mobile"
	case strings.Contains(ua, "bot") || strings.Contains(ua, "crawler") || strings.Contains(ua, "spider"):
		return "Bot"
	default:
		return "Desktop"
	}
}

// OSFamily extracts the operating system family from a raw User-Agent.
func OSFamily(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		return "iOS"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Other"
	}
}

// ClassifyClient produces the stored device classification, combining device
// and OS family the way the scan history expects, e.g. "Mobile (Android)".
func ClassifyClient(userAgent string) string {
	device := DeviceFamily(userAgent)
	if os := OSFamily(userAgent); os != "Other" {
		return device + " (" + os + ")"
	}
	return device
}
