package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/curnce/curnce-client/internal/config"
	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/internal/metrics"
	"github.com/curnce/curnce-client/oauthmodel"
	"github.com/curnce/curnce-client/token/refresh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Sessions is the part of session.Manager the gateway depends on.
type Sessions interface {
	AccessToken() string
	RefreshToken() string
	Rotate(ctx context.Context, prevAccess string, tokens *oauthmodel.TokenResponse) error
	Clear(ctx context.Context) error
}

// Refresher exchanges a refresh token for a new token set.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error)
}

// Client is the single way the application talks to the backend. It
// attaches the bearer token, recovers once from an expired access token and
// interprets the response body by content type.
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client
	sessions   Sessions
	refresher  Refresher
	navigator  Navigator
	limiter    *rate.Limiter
	log        zerolog.Logger

	// refreshMu serialises refreshes so concurrent 401s spend one refresh token.
	refreshMu sync.Mutex
}

func New(cfg config.Config, sessions Sessions, opts ...Option) *Client {
	c := &Client{
		baseURL:    cfg.GetBaseURL(),
		prefix:     cfg.GetAPIPrefix(),
		httpClient: &http.Client{Timeout: cfg.GetRequestTimeout()},
		sessions:   sessions,
		log:        log.Logger,
	}
	WithRateLimit(cfg.GetRequestsPerSecond(), cfg.GetRequestBurst())(c)

	for _, opt := range opts {
		opt(c)
	}

	c.baseURL = strings.TrimRight(c.baseURL, "/")
	if c.refresher == nil {
		c.refresher = refresh.NewManager(c.httpClient, c.URL(RouteAuthRefresh))
	}
	if c.navigator == nil {
		c.navigator = logNavigator{route: cfg.GetLoginRoute(), log: c.log}
	}
	return c
}

// URL returns the absolute URL of an API path: <base>/v1<path>.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + c.prefix + path
}

// request is the transient descriptor built once per Do call.
type request struct {
	method    string
	url       string
	headers   map[string]string
	body      *encodedBody
	raw       bool
	anonymous bool
}

func (c *Client) prepare(path string, opts Options) (*request, error) {
	u, err := url.Parse(c.URL(path))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	if len(opts.Query) > 0 {
		q := u.Query()
		for k, values := range opts.Query {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	return &request{
		method:    opts.method(),
		url:       u.String(),
		headers:   opts.Headers,
		body:      body,
		raw:       opts.Raw,
		anonymous: opts.Anonymous,
	}, nil
}

// Do sends one request to <base>/v1<path>.
//
// A 401 on an authenticated request triggers exactly one refresh followed by
// exactly one resend. If the session cannot be refreshed it is cleared, the
// navigator is asked to show the login entry point and the error wraps
// ErrSessionExpired. Any other non-2xx status yields an *errors.HTTPError.
func (c *Client) Do(ctx context.Context, path string, opts Options) (*Response, error) {
	req, err := c.prepare(path, opts)
	if err != nil {
		return nil, err
	}

	result, err := c.exchange(ctx, req)
	if err != nil {
		return nil, err
	}

	if result.status < 200 || result.status > 299 {
		return nil, &clienterrors.HTTPError{Status: result.status, Body: string(result.body)}
	}
	return newResponse(result.status, result.header, result.body, req.raw)
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, path, Options{Method: http.MethodGet})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, path, Options{Method: http.MethodPost, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, path, Options{Method: http.MethodPut, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, path, Options{Method: http.MethodPatch, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, path, Options{Method: http.MethodDelete})
}

// JSON sends a request and decodes the JSON response into T.
func JSON[T any](ctx context.Context, c *Client, path string, opts Options) (T, error) {
	var out T
	resp, err := c.Do(ctx, path, opts)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// result is a raw HTTP outcome before status and content negotiation.
type result struct {
	status int
	header http.Header
	body   []byte
}

// send performs one HTTP round trip with the given bearer token.
func (c *Client) send(ctx context.Context, req *request, accessToken string) (*result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, bytes.NewReader(req.body.data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	if req.body.contentType != "" {
		httpReq.Header.Set("Content-Type", req.body.contentType)
	}
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveRequest(req.method, 0, time.Since(start))
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	metrics.ObserveRequest(req.method, resp.StatusCode, elapsed)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().
		Str("method", req.method).
		Str("url", req.url).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("Backend request")

	return &result{status: resp.StatusCode, header: resp.Header, body: body}, nil
}
