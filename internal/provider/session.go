package provider

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const defaultHTTPTimeout = 30 * time.Second

// NewHTTPClient returns a client tuned for a handful of concurrent upstream calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

type SessionOptions struct {
	Timeout          time.Duration
	BithumbBaseURL   string
	FearGreedBaseURL string
}

// Session is one run's network handle. Both upstream clients share its
// *http.Client, which is safe for concurrent requests. Close releases the
// pooled connections.
type Session struct {
	*BithumbProvider
	*FearGreedProvider
	client *http.Client
}

func OpenSession(tracer trace.Tracer, opts SessionOptions) *Session {
	client := NewHTTPClient(opts.Timeout)

	bithumb := NewBithumbProvider(tracer)
	bithumb.client = client
	if opts.BithumbBaseURL != "" {
		bithumb.baseURL = opts.BithumbBaseURL
	}

	fng := NewFearGreedProvider(tracer)
	fng.client = client
	if opts.FearGreedBaseURL != "" {
		fng.baseURL = opts.FearGreedBaseURL
	}

	return &Session{BithumbProvider: bithumb, FearGreedProvider: fng, client: client}
}

func (s *Session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
