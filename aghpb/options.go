package aghpb

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	rateLimit  rate.Limit
	rateBurst  int
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
}

// WithHTTPClient uses a caller-supplied HTTP client. Its timeout is kept as is.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout >= 0 {
			o.timeout = timeout
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithRateLimit paces outgoing requests to limit per second with the given
// burst. A limit of zero disables pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *clientOptions) {
		o.rateLimit = limit
		o.rateBurst = max(burst, 1)
	}
}
