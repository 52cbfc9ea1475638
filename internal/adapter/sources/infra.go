package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	ctMaxAttempts = 3
	ctBaseBackoff = 2 * time.Second
)

var ErrCTUnavailable = errors.New("certificate transparency log unavailable")

// Resolver returns one address for a host name.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// CertificateOptions tunes the certificate transparency collector.
type CertificateOptions struct {
	BaseURL        string
	MaxSubdomains  int
	DNSConcurrency int
	Backoff        time.Duration // first retry delay, grows linearly per attempt
}

// CertificateCollector enumerates subdomains from certificate transparency logs and resolves them.
type CertificateCollector struct {
	client   *http.Client
	resolver Resolver
	opts     CertificateOptions
	logger   *zap.Logger
}

func NewCertificateCollector(client *http.Client, resolver Resolver, opts CertificateOptions, logger *zap.Logger) *CertificateCollector {
	if opts.Backoff <= 0 {
		opts.Backoff = ctBaseBackoff
	}
	if opts.DNSConcurrency < 1 {
		opts.DNSConcurrency = 1
	}
	return &CertificateCollector{client: client, resolver: resolver, opts: opts, logger: logger.Named("certificate")}
}

type ctEntry struct {
	NameValue string `json:"name_value"`
}

func (c *CertificateCollector) Collect(ctx context.Context, target entity.Target) (*entity.CollectionResult, error) {
	domain := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(target.Query), "."))
	if domain == "" {
		return nil, errors.New("empty domain")
	}

	entries, err := c.fetchEntries(ctx, domain)
	if err != nil {
		return nil, err
	}

	names := candidateNames(entries)
	if c.opts.MaxSubdomains > 0 && len(names) > c.opts.MaxSubdomains {
		c.logger.Info("truncating subdomain candidates", zap.Int("found", len(names)), zap.Int("max", c.opts.MaxSubdomains))
		names = names[:c.opts.MaxSubdomains]
	}

	subdomains, err := c.resolveAll(ctx, names)
	if err != nil {
		return nil, err
	}

	result := newResult(entity.SourceCertificate, domain)
	result.Source = "crt.sh"
	resolved := 0
	for _, s := range subdomains {
		if s.IP != nil {
			resolved++
		}
		result.Data = append(result.Data, s)
	}

	c.logger.Info("subdomains collected", zap.String("domain", domain), zap.Int("candidates", len(subdomains)), zap.Int("resolved", resolved))
	return result, nil
}

func (c *CertificateCollector) fetchEntries(ctx context.Context, domain string) ([]ctEntry, error) {
	endpoint := strings.TrimSuffix(c.opts.BaseURL, "/") + "/?" + url.Values{
		"q":      {"%." + domain},
		"output": {"json"},
	}.Encode()

	var lastErr error
	for attempt := 1; attempt <= ctMaxAttempts; attempt++ {
		entries, retry, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return entries, nil
		}
		lastErr = err
		if !retry || attempt == ctMaxAttempts {
			break
		}

		wait := time.Duration(attempt) * c.opts.Backoff
		c.logger.Warn("certificate log busy, backing off", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// fetchOnce reports whether a failed request is worth retrying.
func (c *CertificateCollector) fetchOnce(ctx context.Context, endpoint string) ([]ctEntry, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrCTUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("%w: status %d", ErrCTUnavailable, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: status %d", ErrCTUnavailable, resp.StatusCode)
	}

	var entries []ctEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode certificate log response: %w", err)
	}
	return entries, false, nil
}

// candidateNames splits multi-name entries, drops wildcards and returns a sorted, deduplicated list.
func candidateNames(entries []ctEntry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		for _, name := range strings.Split(e.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || strings.Contains(name, "*") {
				continue
			}
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveAll looks up every name under the DNS concurrency gate, keeping unresolved names with a nil IP.
func (c *CertificateCollector) resolveAll(ctx context.Context, names []string) ([]entity.Subdomain, error) {
	out := make([]entity.Subdomain, len(names))
	sem := semaphore.NewWeighted(int64(c.opts.DNSConcurrency))
	var g errgroup.Group

	for i, name := range names {
		out[i].Domain = name
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			ip, err := c.resolver.Resolve(ctx, name)
			if err != nil {
				c.logger.Debug("subdomain did not resolve", zap.String("name", name), zap.Error(err))
				return nil
			}
			out[i].IP = &ip
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
