// Package api is the typed client for the FARS aggregation backend.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/pkg/fn"
	"github.com/farsdash/farsdash/pkg/metrics"
	"github.com/farsdash/farsdash/pkg/resilience"
)

// DefaultBaseURL is where the backend listens in development.
const DefaultBaseURL = "http://127.0.0.1:8000"

// ErrNoData means the backend had nothing for the request: a non-OK status
// or an {"error": "..."} body.
var ErrNoData = errors.New("no data")

// StatusError is returned for non-2xx responses. It unwraps to ErrNoData.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrNoData }

// backendError carries the message of an {"error": "..."} body.
type backendError struct {
	msg string
}

func (e *backendError) Error() string { return e.msg }

func (e *backendError) Unwrap() error { return ErrNoData }

// Client fetches pre-aggregated series from the backend. Every call is a
// single attempt; failures are returned to the caller.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	breaker *resilience.Breaker
	reg     *metrics.Registry
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default otelhttp-instrumented client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout bounds each call. Zero leaves calls unbounded.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithBreaker routes every call through b.
func WithBreaker(b *resilience.Breaker) Option { return func(c *Client) { c.breaker = b } }

// WithMetrics records fetch counts and durations in reg.
func WithMetrics(reg *metrics.Registry) Option { return func(c *Client) { c.reg = reg } }

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		timeout: 30 * time.Second,
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.base }

// Breaker returns the circuit breaker, or nil.
func (c *Client) Breaker() *resilience.Breaker { return c.breaker }

type trendResponse struct {
	Data []domain.TrendPoint `json:"data"`
}

// NationalTrend returns the national series. A missing data field is an
// empty series.
func (c *Client) NationalTrend(ctx context.Context) ([]domain.TrendPoint, error) {
	r := fetch[trendResponse](ctx, c, "national_trend", "/api/national_trend", nil)
	return fn.MapResult(r, func(t trendResponse) []domain.TrendPoint { return t.Data }).Unwrap()
}

// StateHeatmap returns one entry per state for year.
func (c *Client) StateHeatmap(ctx context.Context, year int) ([]domain.HeatmapEntry, error) {
	return fetch[[]domain.HeatmapEntry](ctx, c, "state_heatmap", fmt.Sprintf("/api/state_heatmap/%d", year), nil).Unwrap()
}

// NationalRiskProfile returns the national breakdown for year.
func (c *Client) NationalRiskProfile(ctx context.Context, year int) (*domain.RiskProfile, error) {
	return fetch[*domain.RiskProfile](ctx, c, "national_risk_profile", fmt.Sprintf("/api/national_risk_profile/%d", year), nil).Unwrap()
}

// StateTrend returns the unfiltered series for one state.
func (c *Client) StateTrend(ctx context.Context, id domain.StateID) (domain.StateTrend, error) {
	r := fetch[domain.StateTrend](ctx, c, "state_trend", fmt.Sprintf("/api/state_trend/%d", id), nil)
	return fn.MapResult(r, func(st domain.StateTrend) domain.StateTrend {
		if st.StateName == "" {
			st.StateName = domain.StateName(id)
		}
		if st.StateID == 0 {
			st.StateID = id
		}
		return st
	}).Unwrap()
}

// StateTrendFiltered returns the series for the demographic group f.
func (c *Client) StateTrendFiltered(ctx context.Context, id domain.StateID, f domain.FilterCriteria) ([]domain.TrendPoint, error) {
	r := fetch[trendResponse](ctx, c, "state_trend_filtered", fmt.Sprintf("/api/state_trend_filtered/%d", id), f.Query())
	return fn.MapResult(r, func(t trendResponse) []domain.TrendPoint { return t.Data }).Unwrap()
}

// StateRiskProfile returns the breakdown for one state and year, narrowed by f.
func (c *Client) StateRiskProfile(ctx context.Context, id domain.StateID, year int, f domain.FilterCriteria) (*domain.RiskProfile, error) {
	return fetch[*domain.RiskProfile](ctx, c, "state_risk_profile", fmt.Sprintf("/api/state_risk_profile/%d/%d", id, year), f.Query()).Unwrap()
}

func fetch[T any](ctx context.Context, c *Client, endpoint, path string, q url.Values) fn.Result[T] {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	call := func(ctx context.Context) fn.Result[T] { return doGet[T](ctx, c, endpoint, path, q) }
	var r fn.Result[T]
	if c.breaker != nil {
		r = resilience.CallResult(c.breaker, ctx, call)
	} else {
		r = call(ctx)
	}
	_, err := r.Unwrap()
	if errors.Is(err, resilience.ErrCircuitOpen) {
		r = fn.Errf[T]("%s: %w", endpoint, err)
	}
	c.observe(endpoint, start, err)
	return r
}

func doGet[T any](ctx context.Context, c *Client, endpoint, path string, q url.Values) fn.Result[T] {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fn.Errf[T]("%s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fn.Errf[T]("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fn.Err[T](&StatusError{Endpoint: endpoint, Code: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fn.Errf[T]("%s: read body: %w", endpoint, err)
	}
	if msg, ok := errorBody(body); ok {
		return fn.Errf[T]("%s: %w", endpoint, &backendError{msg: msg})
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return fn.Errf[T]("%s: decode: %w", endpoint, err)
	}
	return fn.Ok(v)
}

// errorBody detects the backend's {"error": "..."} failure shape.
func errorBody(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var e struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &e); err != nil || e.Error == nil {
		return "", false
	}
	return *e.Error, true
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, resilience.ErrCircuitOpen):
		outcome = "circuit_open"
	case errors.Is(err, ErrNoData):
		outcome = "no_data"
	default:
		outcome = "error"
	}
	if err != nil {
		c.log.Warn("fetch failed", "endpoint", endpoint, "outcome", outcome, "err", err)
	}
	if c.reg == nil {
		return
	}
	c.reg.Counter(metrics.WithLabels("farsdash_fetch_total", "endpoint", endpoint, "outcome", outcome),
		"Backend fetches by endpoint and outcome").Inc()
	c.reg.Histogram(metrics.WithLabels("farsdash_fetch_duration_seconds", "endpoint", endpoint),
		"Backend fetch latency", nil).Since(start)
}
