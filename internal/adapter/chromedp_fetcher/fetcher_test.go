package chromedp_fetcher

import (
	"context"
	"reflect"
	"testing"

	"github.com/chromedp/chromedp"
)

func TestInspectDocument(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		html   string
		title  string
		usable bool
	}{
		{name: "empty", html: "", usable: false},
		{name: "blank page", html: "<html><head></head><body></body></html>", usable: false},
		{name: "title only", html: "<html><head><title> Example </title></head><body></body></html>", title: "Example", usable: true},
		{name: "body text", html: "<html><body>hello</body></html>", usable: true},
		{name: "body elements", html: `<html><body><div id="app"></div></body></html>`, usable: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			title, usable := inspectDocument(tc.html)
			if title != tc.title {
				t.Errorf("title = %q, expected %q", title, tc.title)
			}
			if usable != tc.usable {
				t.Errorf("usable = %v, expected %v", usable, tc.usable)
			}
		})
	}
}

type staticAgent string

func (s staticAgent) UserAgent() string { return string(s) }

// launchFlag reads one flag from the allocator the options configure. The browser is never started.
func launchFlag(t *testing.T, opts []chromedp.ExecAllocatorOption, name string) (string, bool) {
	t.Helper()

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()
	alloc, ok := chromedp.FromContext(allocCtx).Allocator.(*chromedp.ExecAllocator)
	if !ok {
		t.Fatal("allocator is not an ExecAllocator")
	}
	v := reflect.ValueOf(alloc).Elem().FieldByName("initFlags").MapIndex(reflect.ValueOf(name))
	if !v.IsValid() {
		return "", false
	}
	return v.Elem().String(), true
}

func TestAllocatorProxyFlags(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		proxy  string
		server string
		rules  string
	}{
		{name: "hostname proxy", proxy: "socks5h://tor:9050", server: "socks5://tor:9050", rules: "MAP * ~NOTFOUND , EXCLUDE tor"},
		{name: "ip proxy", proxy: "socks5://10.0.0.5:9050", server: "socks5://10.0.0.5:9050", rules: "MAP * ~NOTFOUND"},
		{name: "http proxy", proxy: "http://privoxy:8118", server: "http://privoxy:8118", rules: "MAP * ~NOTFOUND , EXCLUDE privoxy"},
	}

	f := &ChromedpFetcher{agents: staticAgent("ua")}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			opts := f.allocatorOptions(tc.proxy)
			if got, _ := launchFlag(t, opts, "proxy-server"); got != tc.server {
				t.Errorf("proxy-server = %q, expected %q", got, tc.server)
			}
			if got, _ := launchFlag(t, opts, "host-resolver-rules"); got != tc.rules {
				t.Errorf("host-resolver-rules = %q, expected %q", got, tc.rules)
			}
		})
	}

	t.Run("direct", func(t *testing.T) {
		t.Parallel()
		opts := f.allocatorOptions("")
		for _, name := range []string{"proxy-server", "host-resolver-rules"} {
			if got, ok := launchFlag(t, opts, name); ok {
				t.Errorf("%s = %q on a direct launch", name, got)
			}
		}
		if got, _ := launchFlag(t, opts, "user-agent"); got != "ua" {
			t.Errorf("user-agent = %q, expected %q", got, "ua")
		}
	})
}
