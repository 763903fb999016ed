// Package validation holds format checks for user-editable profile fields.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"unicode/utf8"
)

var instagramHandleRegex = regexp.MustCompile(`^@?[A-Za-z0-9._]{1,30}$`)

// MaxLength rejects values longer than max runes.
func MaxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s is too long (max %d characters)", field, max)
	}
	return nil
}

// ValidateHTTPURL requires an absolute http or https URL with a host.
func ValidateHTTPURL(field, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	return nil
}

// ValidateInstagram accepts a handle with an optional leading @.
func ValidateInstagram(handle string) error {
	if !instagramHandleRegex.MatchString(handle) {
		return fmt.Errorf("instagram must be a handle of up to 30 letters, numbers, dots or underscores")
	}
	return nil
}
