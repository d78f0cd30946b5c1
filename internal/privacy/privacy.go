// Package privacy provides helpers for keeping credentials out of logs,
// mainly sanitization of camera stream URLs.
package privacy

import (
	"net/url"
	"strings"
)

// SanitizeRTSPUrl removes credentials and path information from an RTSP URL,
// keeping the host and port for debugging. Non-RTSP strings pass through
// unchanged.
func SanitizeRTSPUrl(source string) string {
	if !strings.HasPrefix(source, "rtsp://") {
		return source
	}

	rest := source[len("rtsp://"):]

	// Strip credentials before the @ separator
	if at := strings.IndexByte(rest, '@'); at > -1 {
		rest = rest[at+1:]
	}

	// Strip the stream path after host:port
	if slash := strings.IndexByte(rest, '/'); slash > -1 {
		rest = rest[:slash]
	}

	return "rtsp://" + rest
}

// SanitizeURL sanitizes any URL scheme by removing userinfo and query
// parameters. Unparseable input is returned as a fixed placeholder rather
// than leaked verbatim.
func SanitizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "[invalid-url]"
	}
	parsed.User = nil
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}
