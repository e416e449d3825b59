package util

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Proxy routes outbound delegate and transcript requests. Empty fields
// defer to HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
type Proxy struct {
	HTTP    string
	HTTPS   string
	NoProxy string // Comma-separated hosts or domain suffixes; "*" bypasses every proxy
}

// Func returns a proxy function for http.Transport
func (p Proxy) Func() func(*http.Request) (*url.URL, error) {
	if p.HTTP == "" && p.HTTPS == "" && p.NoProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := splitNoProxy(p.NoProxy)
	return func(req *http.Request) (*url.URL, error) {
		if bypass.matches(req.URL.Hostname()) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && p.HTTPS != "" {
			return url.Parse(p.HTTPS)
		}
		if p.HTTP != "" {
			return url.Parse(p.HTTP)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// Transport clones the default transport and applies p
func (p Proxy) Transport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = p.Func()
	return t
}

type noProxyList []string

func splitNoProxy(s string) noProxyList {
	var out noProxyList
	for _, entry := range strings.Split(s, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if host, _, err := net.SplitHostPort(entry); err == nil {
			entry = host
		}
		out = append(out, strings.TrimPrefix(entry, "."))
	}
	return out
}

// matches reports whether host is listed or is a subdomain of a listed domain
func (l noProxyList) matches(host string) bool {
	host = strings.ToLower(host)
	for _, entry := range l {
		if entry == "*" || host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
