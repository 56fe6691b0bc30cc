// Package validate holds input checks for console-supplied identifiers.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

var (
	reLabel = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
	reArch  = regexp.MustCompile(`^[a-z0-9]+(/[a-z0-9-]+)?$`)

	ErrBadHostname = errors.New("invalid hostname")
	ErrBadArch     = errors.New("invalid architecture")
)

// Hostname checks an RFC 1123 host name (dot-separated labels, 253
// chars max).
func Hostname(s string) error {
	if s == "" || len(s) > 253 {
		return ErrBadHostname
	}
	for _, label := range strings.Split(s, ".") {
		if !reLabel.MatchString(label) {
			return ErrBadHostname
		}
	}
	return nil
}

// Architecture checks a "family/variant" architecture string such as
// amd64/generic or ppc64el/generic. Empty is allowed; unknown hardware
// reports no architecture.
func Architecture(s string) error {
	if s == "" {
		return nil
	}
	if !reArch.MatchString(s) {
		return ErrBadArch
	}
	return nil
}
