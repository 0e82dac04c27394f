package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spark-client/pkg/middleware"
	"spark-client/pkg/utils"

	"go.uber.org/zap"
)

const apiVersion = "v1/"

// Client talks to the remote JSON API. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	transport http.RoundTripper
	log       *zap.Logger
}

type Option func(*Client)

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTransport replaces the base transport under the auth and logging layers.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// New builds a client for baseURL; every path is resolved under baseURL/v1/.
func New(baseURL string, tokens middleware.TokenSource, log *zap.Logger, opts ...Option) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}
	base = base.JoinPath(apiVersion)
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	log = log.Named("api")
	c := &Client{
		base: base,
		log:  log,
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Transport = middleware.Chain(tokens, log, c.transport)
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request. A nil out skips decoding the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: failed to encode body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	op := req.Method + " " + strings.TrimPrefix(req.URL.Path, c.base.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindAPI, Op: op, Status: resp.StatusCode, Message: utils.ReadErrorJSON(resp)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Error{Kind: KindMalformed, Op: op, Status: resp.StatusCode, Message: "Response body is empty"}
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn("undecodable response", zap.String("op", op), zap.Error(err))
		return &Error{Kind: KindMalformed, Op: op, Status: resp.StatusCode, Message: "Unexpected response from server", Err: err}
	}
	return nil
}

func getData[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var resp DataResponse[T]
	if err := c.do(ctx, method, path, query, body, &resp); err != nil {
		var zero T
		return zero, err
	}
	return resp.Data, nil
}

func getPage[T any](ctx context.Context, c *Client, path string, query url.Values) (Paginated[T], error) {
	var resp Paginated[T]
	if err := c.do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return Paginated[T]{}, err
	}
	return resp, nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	return q
}
