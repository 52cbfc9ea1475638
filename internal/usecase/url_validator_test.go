package usecase

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"go.uber.org/zap"
)

type fakeResolver struct {
	addrs map[string][]string
	calls []string
}

func (f *fakeResolver) LookupNetIP(_ context.Context, _ string, host string) ([]netip.Addr, error) {
	f.calls = append(f.calls, host)
	raw, ok := f.addrs[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	out := make([]netip.Addr, 0, len(raw))
	for _, r := range raw {
		out = append(out, netip.MustParseAddr(r))
	}
	return out, nil
}

func newTestValidator(blockUnresolved bool) (*URLValidator, *fakeResolver) {
	resolver := &fakeResolver{addrs: map[string][]string{
		"example.com":       {"93.184.216.34"},
		"metadata.evil.com": {"169.254.169.254"},
		"mixed.evil.com":    {"93.184.216.34", "10.0.0.5"},
		"mapped.evil.com":   {"::ffff:127.0.0.1"},
		"v6.example.com":    {"2606:2800:220:1:248:1893:25c8:1946"},
	}}
	v := NewURLValidator(resolver, ValidatorOptions{
		ExtraBlockedHosts: []string{"internal-api"},
		AnonymitySuffixes: []string{".onion", "i2p"},
		BlockUnresolved:   blockUnresolved,
	}, zap.NewNop())
	return v, resolver
}

func TestURLValidator(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		url  string
		want error
	}{
		{"public host", "https://example.com/page", nil},
		{"public ipv6 host", "http://v6.example.com", nil},
		{"ftp scheme", "ftp://example.com", ErrInvalidScheme},
		{"file scheme", "file:///etc/passwd", ErrInvalidScheme},
		{"no host", "http://", ErrNoHostname},
		{"internal service", "http://minio:9000/bucket", ErrBlockedHost},
		{"internal service mixed case with root dot", "http://Redis./", ErrBlockedHost},
		{"configured extra host", "http://internal-api/", ErrBlockedHost},
		{"metadata literal", "http://169.254.169.254/latest/meta-data", ErrBlockedIP},
		{"metadata by name", "http://metadata.evil.com/", ErrBlockedIP},
		{"one private address among many", "http://mixed.evil.com/", ErrBlockedIP},
		{"mapped loopback", "http://mapped.evil.com/", ErrBlockedIP},
		{"loopback literal", "http://127.0.0.1:8080/", ErrBlockedIP},
		{"ipv6 loopback", "http://[::1]/", ErrBlockedIP},
		{"private literal", "http://192.168.1.10/", ErrBlockedIP},
		{"unspecified", "http://0.0.0.0/", ErrBlockedIP},
		{"multicast", "http://224.0.0.1/", ErrBlockedIP},
		{"decimal loopback", "http://2130706433/", ErrBlockedIP},
		{"hex shorthand loopback", "http://0x7f.1/", ErrBlockedIP},
		{"octal loopback", "http://0177.0.0.1/", ErrBlockedIP},
		{"onion skips dns", "http://abcdefghijklmnop.onion/", nil},
		{"extra suffix without dot", "http://site.i2p/", nil},
		{"unresolved proceeds by default", "http://nowhere.invalid/", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v, _ := newTestValidator(false)
			if err := v.Validate(context.Background(), tc.url); !errors.Is(err, tc.want) {
				t.Errorf("Validate(%q) = %v, expected %v", tc.url, err, tc.want)
			}
		})
	}
}

func TestURLValidatorNeverResolvesAnonymityHosts(t *testing.T) {
	t.Parallel()

	v, resolver := newTestValidator(true)
	if err := v.Validate(context.Background(), "http://hiddenservice.onion/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolver.calls) != 0 {
		t.Errorf("resolver was asked for %v", resolver.calls)
	}
}

func TestURLValidatorBlockPolicy(t *testing.T) {
	t.Parallel()

	v, _ := newTestValidator(true)
	if err := v.Validate(context.Background(), "http://nowhere.invalid/"); !errors.Is(err, ErrUnresolvable) {
		t.Errorf("Validate() = %v, expected ErrUnresolvable", err)
	}
}

func TestParseIPLiteral(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		host string
		want string
		ok   bool
	}{
		{"10.1.2.3", "10.1.2.3", true},
		{"167772161", "10.0.0.1", true},
		{"10.1", "10.0.0.1", true},
		{"0xa.0.0.1", "10.0.0.1", true},
		{"example.com", "", false},
		{"1.2.3.4.5", "", false},
		{"256.1.1.1", "", false},
	}
	for _, tc := range testCases {
		addr, ok := parseIPLiteral(tc.host)
		if ok != tc.ok {
			t.Errorf("parseIPLiteral(%q) ok = %v, expected %v", tc.host, ok, tc.ok)
			continue
		}
		if ok && addr.String() != tc.want {
			t.Errorf("parseIPLiteral(%q) = %s, expected %s", tc.host, addr, tc.want)
		}
	}
}
