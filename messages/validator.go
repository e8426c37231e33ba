package messages

import (
	"fmt"
	"net/url"
	"strings"
)

// Validator accepts messages from a fixed set of origins only.
type Validator struct {
	allowed map[string]struct{}
}

// NewValidator builds an allow-list from scheme://host[:port] origins.
// Wildcards are not supported.
func NewValidator(origins []string) (*Validator, error) {
	v := &Validator{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		norm, err := NormalizeOrigin(o)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed origin %q: %w", o, err)
		}
		v.allowed[norm] = struct{}{}
	}
	return v, nil
}

// NormalizeOrigin lowercases scheme and host and drops default ports. Paths,
// queries, fragments and credentials make an origin invalid.
func NormalizeOrigin(origin string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" || u.User != nil || (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("not a bare origin")
	}
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = host + ":" + port
	}
	return scheme + "://" + host, nil
}

func (v *Validator) Allowed(origin string) bool {
	norm, err := NormalizeOrigin(origin)
	if err != nil {
		return false
	}
	_, ok := v.allowed[norm]
	return ok
}

// Validate checks origin first, then payload shape. Rejections are *ValidationError.
func (v *Validator) Validate(m Message) (Replacement, error) {
	if !v.Allowed(m.Origin) {
		return Replacement{}, &ValidationError{MessageID: m.ID, Origin: m.Origin, Err: ErrOriginNotAllowed}
	}
	r, err := ParsePayload(m.Payload)
	if err != nil {
		return Replacement{}, &ValidationError{MessageID: m.ID, Origin: m.Origin, Err: err}
	}
	return r, nil
}
