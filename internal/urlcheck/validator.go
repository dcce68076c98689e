package urlcheck

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

var protocolPattern = regexp.MustCompile(`(?i)^https?://`)

// Result is the structured verdict for a candidate URL.
type Result struct {
	// IsValid reports syntactic validity. Syntactic validity alone is
	// sufficient to create a link.
	IsValid bool
	// IsReachable reports whether any candidate form of the URL responded to
	// a probe. Non-authoritative.
	IsReachable bool
	// FinalURL is the form to persist: the first reachable candidate, or the
	// trimmed input when nothing responded.
	FinalURL string
	// HasProtocol reports whether the input already carried http(s)://.
	HasProtocol bool
}

// ReachabilityProber is the probe the validator delegates to.
type ReachabilityProber interface {
	Probe(ctx context.Context, rawURL string) bool
}

// Validator normalizes and validates candidate URLs, delegating reachability
// to a prober.
type Validator struct {
	prober ReachabilityProber
}

// NewValidator creates a validator backed by the given prober.
func NewValidator(prober ReachabilityProber) *Validator {
	return &Validator{prober: prober}
}

// Validate trims the input, checks it parses as an http(s) URL, and probes
// candidate forms until one responds.
//
// Protocol-less input gets two synthesized candidates, https:// before
// http://; the first to respond becomes FinalURL. Input that already carries
// a protocol is probed only in that exact form. When no candidate responds
// the URL stays valid but flagged unreachable, with FinalURL falling back to
// the trimmed input.
func (v *Validator) Validate(ctx context.Context, rawURL string) Result {
	trimmed := strings.TrimSpace(rawURL)
	hasProtocol := protocolPattern.MatchString(trimmed)

	result := Result{
		FinalURL:    trimmed,
		HasProtocol: hasProtocol,
	}

	if !ValidFormat(trimmed, false) {
		return result
	}

	result.IsValid = true

	for _, candidate := range candidates(trimmed, hasProtocol) {
		if v.prober.Probe(ctx, candidate) {
			result.IsReachable = true
			result.FinalURL = candidate

			return result
		}
	}

	return result
}

// candidates returns the URL forms to probe, most preferred first.
func candidates(trimmed string, hasProtocol bool) []string {
	if hasProtocol {
		return []string{trimmed}
	}

	return []string{"https://" + trimmed, "http://" + trimmed}
}

// ValidFormat reports whether the URL is a well-formed http(s) URL.
//
// With requireProtocol set the check is strict: the scheme must be present
// and be http or https. This is the form used to re-validate stored URLs at
// redirect time. Creation-time validation passes requireProtocol=false and
// accepts protocol-less input, since a protocol gets synthesized before the
// URL is persisted.
func ValidFormat(rawURL string, requireProtocol bool) bool {
	if rawURL == "" || strings.ContainsAny(rawURL, " \t\n") {
		return false
	}

	hasProtocol := protocolPattern.MatchString(rawURL)
	if requireProtocol && !hasProtocol {
		return false
	}

	candidate := rawURL
	if !hasProtocol {
		candidate = "https://" + rawURL
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}

	host := parsed.Hostname()

	return host != "" && strings.Contains(host, ".") && !strings.HasSuffix(host, ".")
}
