package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc builds the proxy selector shared by every outbound HTTP
// path. Explicit settings take precedence over the HTTP_PROXY /
// HTTPS_PROXY / NO_PROXY environment; hosts matched by noProxy connect
// directly.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	cfg := httpproxy.FromEnvironment()
	if httpProxy != "" {
		cfg.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTPSProxy = httpsProxy
	}
	if noProxy != "" {
		cfg.NoProxy = noProxy
	}

	proxy := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// NewTransport returns a transport routing through the configured
// proxies. Gateway providers and the endpoint prober all build their
// clients on top of this so proxy policy lives in one place.
func NewTransport(httpProxy, httpsProxy, noProxy string) *http.Transport {
	return &http.Transport{
		Proxy: NewProxyFunc(httpProxy, httpsProxy, noProxy),
	}
}
