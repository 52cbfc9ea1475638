package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Yasuno-5555/investidabh/pkg/utils"
	"go.uber.org/zap"
)

var (
	ErrInvalidScheme = errors.New("invalid scheme: only http and https are allowed")
	ErrNoHostname    = errors.New("url has no hostname")
	ErrBlockedHost   = errors.New("hostname is an internal service")
	ErrBlockedIP     = errors.New("address is not publicly routable")
	ErrUnresolvable  = errors.New("hostname could not be resolved")
)

// DefaultBlockedHosts are the platform's own service names.
var DefaultBlockedHosts = []string{
	"localhost", "tor", "minio", "postgres", "redis", "meilisearch", "analysis", "gateway",
}

var metadataAddr = netip.MustParseAddr("169.254.169.254")

// Ranges netip has no predicate for.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("255.255.255.255/32"),
}

// HostResolver is satisfied by *net.Resolver.
type HostResolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// ValidatorOptions configures a URLValidator.
type ValidatorOptions struct {
	ExtraBlockedHosts []string
	AnonymitySuffixes []string
	BlockUnresolved   bool
}

// URLValidator rejects URLs that point at the platform itself or at non-public addresses.
type URLValidator struct {
	resolver        HostResolver
	blocked         map[string]struct{}
	suffixes        []string
	blockUnresolved bool
	logger          *zap.Logger
}

func NewURLValidator(resolver HostResolver, opts ValidatorOptions, logger *zap.Logger) *URLValidator {
	blocked := make(map[string]struct{}, len(DefaultBlockedHosts)+len(opts.ExtraBlockedHosts))
	for _, h := range slices.Concat(DefaultBlockedHosts, opts.ExtraBlockedHosts) {
		blocked[utils.NormalizeHost(strings.TrimSpace(h))] = struct{}{}
	}
	suffixes := make([]string, 0, len(opts.AnonymitySuffixes))
	for _, s := range opts.AnonymitySuffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		suffixes = append(suffixes, s)
	}
	return &URLValidator{
		resolver:        resolver,
		blocked:         blocked,
		suffixes:        suffixes,
		blockUnresolved: opts.BlockUnresolved,
		logger:          logger.Named("validator"),
	}
}

// Validate checks rawURL before any proxy or browser is engaged.
func (v *URLValidator) Validate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoHostname, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScheme, u.Scheme)
	}

	host := utils.NormalizeHost(u.Hostname())
	if host == "" {
		return ErrNoHostname
	}
	if _, ok := v.blocked[host]; ok {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}

	if addr, ok := parseIPLiteral(host); ok {
		return checkAddr(host, addr)
	}

	for _, suffix := range v.suffixes {
		if strings.HasSuffix(host, suffix) {
			// Resolved inside the proxy; ordinary DNS must never see the name.
			v.logger.Debug("anonymity network host, skipping resolution", zap.String("host", host))
			return nil
		}
	}

	addrs, err := v.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil || len(addrs) == 0 {
		if v.blockUnresolved {
			return fmt.Errorf("%w: %s: %v", ErrUnresolvable, host, err)
		}
		v.logger.Warn("hostname did not resolve, proceeding", zap.String("host", host), zap.Error(err))
		return nil
	}
	for _, addr := range addrs {
		if err := checkAddr(host, addr); err != nil {
			return err
		}
	}
	return nil
}

func checkAddr(host string, addr netip.Addr) error {
	addr = addr.Unmap().WithZone("")
	if !isPublic(addr) {
		return fmt.Errorf("%w: %s resolves to %s", ErrBlockedIP, host, addr)
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	if !addr.IsValid() || addr == metadataAddr {
		return false
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() || addr.IsUnspecified() {
		return false
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// parseIPLiteral accepts standard literals plus the numeric IPv4 shorthands browsers honor
// (2130706433, 0x7f.1, 0177.0.0.1), which would otherwise slip past resolution as names.
func parseIPLiteral(host string) (netip.Addr, bool) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, true
	}

	parts := strings.Split(host, ".")
	if len(parts) > 4 {
		return netip.Addr{}, false
	}
	values := make([]uint64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 0, 32)
		if err != nil {
			return netip.Addr{}, false
		}
		values[i] = n
	}

	// The last part fills all remaining bytes.
	var ip uint64
	for i, n := range values[:len(values)-1] {
		if n > 0xff {
			return netip.Addr{}, false
		}
		ip |= n << (24 - 8*i)
	}
	last := values[len(values)-1]
	if last >= 1<<(8*(5-len(values))) {
		return netip.Addr{}, false
	}
	ip |= last
	return netip.AddrFrom4([4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)}), true
}
