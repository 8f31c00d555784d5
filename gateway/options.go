package gateway

import (
	"net/http"
	"net/url"

	"github.com/curnce/curnce-client/token/refresh"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Options describes one request. The zero value is an authenticated GET.
type Options struct {
	Method  string
	Headers map[string]string
	Query   url.Values

	// Body is JSON encoded unless it is *FormData, []byte or io.Reader.
	Body any

	// Raw returns the body as bytes whatever its content type.
	Raw bool

	// Anonymous requests carry no bearer token and a 401 is returned to the
	// caller as an ordinary error instead of triggering a refresh.
	Anonymous bool
}

func (o Options) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithBaseURL overrides the configured backend origin.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRefresher replaces the refresh exchange, mainly for tests.
func WithRefresher(r Refresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

// WithRateLimit caps outbound requests per second. Zero disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

var _ Refresher = (*refresh.Manager)(nil)
