// Package urlcheck validates candidate destination URLs and probes whether
// they currently resolve. Probing is best-effort UX: a destination that is
// down or blocks HEAD requests is still shortenable, just flagged.
package urlcheck

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProbeTimeout bounds how long a single reachability probe may take, so a
// slow destination cannot stall the creation request.
const ProbeTimeout = 5 * time.Second

// Prober issues lightweight existence checks against destination URLs.
type Prober struct {
	client *http.Client
}

// NewProber creates a prober with the default probe timeout.
func NewProber() *Prober {
	return &Prober{
		client: &http.Client{Timeout: ProbeTimeout},
	}
}

// NewProberWithClient creates a prober using the given HTTP client. The
// client's timeout applies on top of any context deadline.
func NewProberWithClient(client *http.Client) *Prober {
	return &Prober{client: client}
}

// Probe reports whether the URL currently resolves. It issues a HEAD request
// and returns true only on a successful response status. Malformed URLs,
// hostnames without a dot, network errors, and timeouts all report false;
// unreachability is a normal outcome, never an error.
func (p *Prober) Probe(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if !strings.Contains(parsed.Hostname(), ".") {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
