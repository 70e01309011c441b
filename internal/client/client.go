package client

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultMaxIdleConnections = 100
	defaultKeepAliveTimeout   = 600 * time.Second
	defaultRequestTimeout     = 15 * time.Second
	defaultUserAgent          = "market-bias/0.1"
)

type Options struct {
	RequestTimeout     time.Duration
	MaxIdleConnections int
	KeepAliveTimeout   time.Duration
}

type Option func(*Options)

func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = timeout
	}
}

func New(opts ...Option) *http.Client {
	options := configure(opts...)

	transport := &http.Transport{
		Dial:                (&net.Dialer{KeepAlive: options.KeepAliveTimeout}).Dial,
		MaxIdleConnsPerHost: options.MaxIdleConnections,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: &userAgentTransport{inner: transport},
		Timeout:   options.RequestTimeout,
	}
}

func configure(opts ...Option) *Options {
	options := &Options{
		RequestTimeout:     defaultRequestTimeout,
		KeepAliveTimeout:   defaultKeepAliveTimeout,
		MaxIdleConnections: defaultMaxIdleConnections,
	}

	for _, o := range opts {
		o(options)
	}

	return options
}

type userAgentTransport struct {
	inner http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaultUserAgent)
	}
	return t.inner.RoundTrip(req)
}
