package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	xproxy "golang.org/x/net/proxy"
)

var (
	ErrUnsupportedProxy = errors.New("unsupported proxy scheme: expected socks5, socks5h, http or https")
	// ErrNoTunnel is returned when dialing through an HTTP proxy, which only carries HTTP requests.
	ErrNoTunnel = errors.New("http proxy cannot tunnel raw connections")
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Manager holds the outbound proxy and hands out user agents for every outbound request.
type Manager struct {
	proxyURL   *url.URL
	userAgents []string
	timeout    time.Duration

	mu      sync.Mutex
	uaIndex int
}

// NewManager parses rawProxy; an empty value means direct connections.
func NewManager(rawProxy string, timeout time.Duration) (*Manager, error) {
	m := &Manager{userAgents: defaultUserAgents, timeout: timeout}
	rawProxy = strings.TrimSpace(rawProxy)
	if rawProxy == "" {
		return m, nil
	}

	u, err := url.Parse(rawProxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	switch u.Scheme {
	case "socks5", "socks5h", "http", "https":
	default:
		return nil, ErrUnsupportedProxy
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy url %q: missing host", rawProxy)
	}
	m.proxyURL = u
	return m, nil
}

func (m *Manager) Enabled() bool {
	return m.proxyURL != nil
}

// ProxyURL returns the configured proxy, or "" for direct connections.
func (m *Manager) ProxyURL() string {
	if m.proxyURL == nil {
		return ""
	}
	return m.proxyURL.String()
}

// UserAgent returns the next user agent, rotating sequentially.
func (m *Manager) UserAgent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ua := m.userAgents[m.uaIndex]
	m.uaIndex = (m.uaIndex + 1) % len(m.userAgents)
	return ua
}

// ChromeProxy converts a proxy URL into the form the browser's --proxy-server flag accepts.
// The browser resolves through SOCKS proxies itself, so socks5h is spelled socks5.
func ChromeProxy(rawProxy string) string {
	u, err := url.Parse(strings.TrimSpace(rawProxy))
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "socks5h" {
		scheme = "socks5"
	}
	return scheme + "://" + u.Host
}

// ChromeResolverRules returns the browser's host-resolver-rules for rawProxy: every name maps to
// NOTFOUND so nothing is resolved locally, except the proxy's own hostname, which the browser
// must resolve to reach the proxy at all. An IP literal proxy needs no exception.
func ChromeResolverRules(rawProxy string) string {
	u, err := url.Parse(strings.TrimSpace(rawProxy))
	if err != nil || u.Host == "" {
		return ""
	}
	const rules = "MAP * ~NOTFOUND"
	host := u.Hostname()
	if net.ParseIP(host) != nil {
		return rules
	}
	return rules + " , EXCLUDE " + host
}

// IsSOCKS reports whether name resolution happens on the proxy side.
func (m *Manager) IsSOCKS() bool {
	return m.proxyURL != nil && strings.HasPrefix(m.proxyURL.Scheme, "socks5")
}

// ContextDialer returns a dialer that tunnels through the SOCKS proxy. Without a proxy it dials
// directly. Behind an HTTP proxy every dial fails with ErrNoTunnel rather than leaving the proxy.
func (m *Manager) ContextDialer() (xproxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: m.timeout}
	switch {
	case m.proxyURL == nil:
		return direct, nil
	case !m.IsSOCKS():
		return refusingDialer{}, nil
	}

	var auth *xproxy.Auth
	if m.proxyURL.User != nil {
		pass, _ := m.proxyURL.User.Password()
		auth = &xproxy.Auth{User: m.proxyURL.User.Username(), Password: pass}
	}
	dialer, err := xproxy.SOCKS5("tcp", m.proxyURL.Host, auth, direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := dialer.(xproxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}
	return cd, nil
}

// HTTPClient returns a client whose connections go through the proxy and carry a rotated user agent.
func (m *Manager) HTTPClient() (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   m.timeout,
		ResponseHeaderTimeout: m.timeout,
	}

	switch {
	case m.IsSOCKS():
		dialer, err := m.ContextDialer()
		if err != nil {
			return nil, err
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		}
	case m.proxyURL != nil:
		transport.Proxy = http.ProxyURL(m.proxyURL)
	default:
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: &userAgentTransport{base: transport, next: m.UserAgent},
		Timeout:   m.timeout,
	}, nil
}

type refusingDialer struct{}

func (refusingDialer) Dial(network, addr string) (net.Conn, error) {
	return nil, fmt.Errorf("%w: %s %s", ErrNoTunnel, network, addr)
}

func (d refusingDialer) DialContext(_ context.Context, network, addr string) (net.Conn, error) {
	return d.Dial(network, addr)
}

type userAgentTransport struct {
	base http.RoundTripper
	next func() string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.next())
	return t.base.RoundTrip(req)
}
