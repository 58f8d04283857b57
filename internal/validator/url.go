// Package validator checks RTMP server URLs before a dial is attempted.
package validator

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateServerURL checks that rawURL is a well-formed RTMP URL: scheme
// rtmp or rtmps, a non-empty host, and (if present) a valid port.
func ValidateServerURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}

	if !strings.Contains(rawURL, "://") {
		return fmt.Errorf("server URL %q must include a scheme (rtmp:// or rtmps://)", rawURL)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	if parsed.Scheme != "rtmp" && parsed.Scheme != "rtmps" {
		return fmt.Errorf("unsupported scheme %q (must be rtmp or rtmps)", parsed.Scheme)
	}

	if parsed.Hostname() == "" {
		return fmt.Errorf("server URL must include a host")
	}

	if portStr := parsed.Port(); portStr != "" {
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port %q: must be 1-65535", portStr)
		}
	}

	return nil
}
