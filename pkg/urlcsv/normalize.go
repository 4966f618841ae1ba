package urlcsv

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxURLLength caps payloads accepted by NormalizeURL.
const MaxURLLength = 4096

// NormalizeURL validates and normalizes a URL string for QR generation.
// It ensures an http/https scheme and a non-empty host, defaulting the
// scheme to https when none is given.
func NormalizeURL(s string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", fmt.Errorf("URL is required")
	}
	if !strings.Contains(v, "://") {
		v = "https://" + v
	}
	if len(v) > MaxURLLength {
		return "", fmt.Errorf("URL is too long")
	}
	u, err := url.ParseRequestURI(v)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("only http and https URLs are supported")
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL must include a valid host")
	}
	return u.String(), nil
}
