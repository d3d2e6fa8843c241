package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geofotos/internal/pkg/metrics"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultBackoffStep = time.Second
	maxBodyBytes       = 8 << 20
)

var tracer = otel.Tracer("github.com/samirrijal/geofotos/internal/pkg/fetch")

// Request describes one logical provider call. Attempts derived from it share
// the same timeout, retry budget and limiter.
type Request struct {
	Provider   string
	Method     string
	URL        string
	Form       url.Values // sent as an urlencoded POST body when set
	Header     http.Header
	Timeout    time.Duration
	MaxRetries int
	Limiter    *Limiter // awaited before every attempt when set
}

// Response is a fully read 2xx provider response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs provider calls with timeout and bounded retry.
type Client struct {
	http        *http.Client
	userAgent   string
	backoffStep time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackoffStep sets the linear backoff unit (attempt x step).
func WithBackoffStep(step time.Duration) Option {
	return func(c *Client) { c.backoffStep = step }
}

// NewClient creates a Client that identifies itself with userAgent.
func NewClient(userAgent string, opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{},
		userAgent:   userAgent,
		backoffStep: defaultBackoffStep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs req, retrying timeouts, 5xx responses and transport errors up to
// req.MaxRetries times. 4xx responses fail immediately. The last error is
// returned once retries are exhausted.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	retries := req.MaxRetries
	if retries < 0 {
		retries = 0
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: c.backoffStep}, uint64(retries)),
		ctx,
	)

	var (
		resp    *Response
		attempt int
	)
	op := func() error {
		attempt++
		if req.Limiter != nil {
			if err := req.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		r, err := c.attempt(ctx, req, attempt)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.ClientError() {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "provider attempt failed, retrying",
			"provider", req.Provider,
			"attempt", attempt,
			"backoff", wait.String(),
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, req Request, n int) (*Response, error) {
	ctx, span := tracer.Start(ctx, "provider."+req.Provider,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider", req.Provider),
			attribute.Int("attempt", n),
		),
	)
	defer span.End()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.roundTrip(attemptCtx, req)
	metrics.ProviderLatency.WithLabelValues(req.Provider).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%s after %s: %w", req.Provider, timeout, ErrTimeout)
		}
		metrics.ProviderRequests.WithLabelValues(req.Provider, outcome(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.ProviderRequests.WithLabelValues(req.Provider, "ok").Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
		if req.Method == "" {
			method = http.MethodPost
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", req.Provider, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Provider, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", req.Provider, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{Provider: req.Provider, StatusCode: httpResp.StatusCode}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &se) && se.ClientError():
		return "client_error"
	case errors.As(err, &se):
		return "server_error"
	default:
		return "network_error"
	}
}

// linearBackOff waits n x step before the n-th retry.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() { b.n = 0 }
