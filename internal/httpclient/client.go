// Package httpclient provides an instrumented HTTP client with OTEL
// tracing and metrics.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultDialKeepAlive   = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Client builds and executes requests against one upstream.
type Client interface {
	NewRequest() Request
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	upstream       string
	baseURL        string
	requestTimeout time.Duration
	headers        map[string]string
	transport      http.RoundTripper
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
}

// Option configures Options.
type Option func(*Options)

// WithUpstream names the upstream for metric and span attribution.
func WithUpstream(name string) Option {
	return func(o *Options) { o.upstream = name }
}

// WithBaseURL sets the base URL prepended to relative request paths.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.baseURL = url }
}

// WithRequestTimeout overrides the default request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.requestTimeout = d }
}

// WithHeaders sets default headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *Options) { o.headers = headers }
}

// WithTransport sets a custom transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *Options) { o.transport = rt }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *Options) { o.meterProvider = mp }
}

type instrumentedClient struct {
	client         *http.Client
	upstream       string
	baseURL        string
	defaultHeaders map[string]string
	requestCounter metric.Int64Counter
	tracer         trace.Tracer
}

// New creates an instrumented HTTP client. The transport is wrapped with
// otelhttp so spans carry connection-level timings.
func New(opts ...Option) (Client, error) {
	options := &Options{requestTimeout: defaultRequestTimeout}
	for _, o := range opts {
		o(options)
	}

	transport := options.transport
	if transport == nil {
		transport = &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}
	transport = otelhttp.NewTransport(
		transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	upstream := options.upstream
	if upstream == "" {
		upstream = "default"
	}

	mp := options.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(
		"httpclient",
		metric.WithInstrumentationAttributes(attribute.String("upstream", upstream)),
	)
	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	tracer := options.tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer("httpclient")
	}

	return &instrumentedClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   options.requestTimeout,
		},
		upstream:       upstream,
		baseURL:        options.baseURL,
		defaultHeaders: options.headers,
		requestCounter: requestCounter,
		tracer:         tracer,
	}, nil
}

// NewRequest returns a fresh request builder.
func (c *instrumentedClient) NewRequest() Request {
	headers := make(map[string]string, len(c.defaultHeaders))
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	return &requestBuilder{
		client:         c.client,
		upstream:       c.upstream,
		baseURL:        c.baseURL,
		headers:        headers,
		requestCounter: c.requestCounter,
		tracer:         c.tracer,
	}
}

// Do executes a prepared http.Request.
func (c *instrumentedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(ctx))
}
