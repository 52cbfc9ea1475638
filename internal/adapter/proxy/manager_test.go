package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		raw     string
		enabled bool
		socks   bool
		wantErr error
	}{
		{name: "direct", raw: "", enabled: false},
		{name: "socks5", raw: "socks5://tor:9050", enabled: true, socks: true},
		{name: "socks5h", raw: " socks5h://tor:9050 ", enabled: true, socks: true},
		{name: "http proxy", raw: "http://proxy:8080", enabled: true},
		{name: "ftp is rejected", raw: "ftp://proxy:21", wantErr: ErrUnsupportedProxy},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, err := NewManager(tc.raw, time.Second)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("NewManager() error = %v, expected %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Enabled() != tc.enabled {
				t.Errorf("Enabled() = %v, expected %v", m.Enabled(), tc.enabled)
			}
			if m.IsSOCKS() != tc.socks {
				t.Errorf("IsSOCKS() = %v, expected %v", m.IsSOCKS(), tc.socks)
			}
			if _, err := m.ContextDialer(); err != nil {
				t.Errorf("ContextDialer() error = %v", err)
			}
		})
	}
}

func TestContextDialerNeverBypassesHTTPProxy(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	m, err := NewManager("http://privoxy:8118", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	dialer, err := m.ContextDialer()
	if err != nil {
		t.Fatal(err)
	}
	conn, err := dialer.DialContext(context.Background(), "tcp", ln.Addr().String())
	if conn != nil {
		conn.Close()
	}
	if !errors.Is(err, ErrNoTunnel) {
		t.Fatalf("DialContext() error = %v, expected %v", err, ErrNoTunnel)
	}
}

func TestChromeProxy(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"socks5h://tor:9050":      "socks5://tor:9050",
		"socks5://tor:9050":       "socks5://tor:9050",
		"http://user:pw@px:3128/": "http://px:3128",
		"":                        "",
	}
	for raw, want := range testCases {
		if got := ChromeProxy(raw); got != want {
			t.Errorf("ChromeProxy(%q) = %q, expected %q", raw, got, want)
		}
	}
}

func TestChromeResolverRules(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"socks5h://tor:9050":        "MAP * ~NOTFOUND , EXCLUDE tor",
		"socks5://user:pw@Tor:9050": "MAP * ~NOTFOUND , EXCLUDE Tor",
		"http://privoxy:8118":       "MAP * ~NOTFOUND , EXCLUDE privoxy",
		"socks5://127.0.0.1:9050":   "MAP * ~NOTFOUND",
		"socks5://[::1]:9050":       "MAP * ~NOTFOUND",
		"":                          "",
	}
	for raw, want := range testCases {
		if got := ChromeResolverRules(raw); got != want {
			t.Errorf("ChromeResolverRules(%q) = %q, expected %q", raw, got, want)
		}
	}
}

func TestUserAgentRotation(t *testing.T) {
	t.Parallel()

	m, err := NewManager("", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	first := m.UserAgent()
	for i := 1; i < len(defaultUserAgents); i++ {
		if m.UserAgent() == first {
			t.Fatalf("user agent repeated after %d calls", i)
		}
	}
	if m.UserAgent() != first {
		t.Error("rotation did not wrap around")
	}
}

func TestHTTPClientSetsUserAgent(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.UserAgent()
	}))
	defer srv.Close()

	m, err := NewManager("", 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	client, err := m.HTTPClient()
	if err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "Go-http-client/1.1")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	ua := <-seen
	found := false
	for _, candidate := range defaultUserAgents {
		if ua == candidate {
			found = true
		}
	}
	if !found {
		t.Errorf("request carried user agent %q", ua)
	}
}
