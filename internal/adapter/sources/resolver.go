package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/proxy"
)

var ErrNoAddress = errors.New("no address records")

// DNSResolver queries nameservers directly. With a dialer set, queries use TCP through it,
// so lookups leave through the proxy instead of the local network. A dialer error is
// returned as is; there is no fallback to UDP.
type DNSResolver struct {
	servers []string
	dialer  proxy.ContextDialer
	timeout time.Duration
}

func NewDNSResolver(servers []string, dialer proxy.ContextDialer, timeout time.Duration) *DNSResolver {
	return &DNSResolver{servers: servers, dialer: dialer, timeout: timeout}
}

func (r *DNSResolver) Resolve(ctx context.Context, name string) (string, error) {
	if len(r.servers) == 0 {
		return "", errors.New("no nameservers configured")
	}

	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		for _, server := range r.servers {
			addr, err := r.query(ctx, server, name, qtype)
			if err == nil {
				return addr, nil
			}
			lastErr = err
			if errors.Is(err, ErrNoAddress) {
				// Authoritative negative answer, asking another server will not help.
				break
			}
		}
	}
	return "", lastErr
}

func (r *DNSResolver) query(ctx context.Context, server, name string, qtype uint16) (string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	in, err := r.exchange(ctx, server, msg)
	if err != nil {
		return "", fmt.Errorf("query %s via %s: %w", name, server, err)
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return "", fmt.Errorf("%w: %s does not exist", ErrNoAddress, name)
	default:
		return "", fmt.Errorf("query %s via %s: %s", name, server, dns.RcodeToString[in.Rcode])
	}

	for _, rr := range in.Answer {
		switch rec := rr.(type) {
		case *dns.A:
			return rec.A.String(), nil
		case *dns.AAAA:
			return rec.AAAA.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoAddress, name)
}

func (r *DNSResolver) exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.dialer == nil {
		client := &dns.Client{Net: "udp", Timeout: r.timeout}
		in, _, err := client.ExchangeContext(ctx, msg, server)
		return in, err
	}

	conn, err := r.dialer.DialContext(ctx, "tcp", server)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	dc := &dns.Conn{Conn: conn}
	if err := dc.WriteMsg(msg); err != nil {
		return nil, err
	}
	return dc.ReadMsg()
}
