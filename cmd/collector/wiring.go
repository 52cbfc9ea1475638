package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/adapter/chromedp_fetcher"
	"github.com/Yasuno-5555/investidabh/internal/adapter/minio"
	"github.com/Yasuno-5555/investidabh/internal/adapter/proxy"
	"github.com/Yasuno-5555/investidabh/internal/adapter/sources"
	"github.com/Yasuno-5555/investidabh/internal/adapter/torctl"
	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/Yasuno-5555/investidabh/internal/repository"
	"github.com/Yasuno-5555/investidabh/internal/usecase"
	"github.com/Yasuno-5555/investidabh/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	xproxy "golang.org/x/net/proxy"
)

const (
	outboundTimeout = 30 * time.Second
	dnsTimeout      = 5 * time.Second
)

func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return client, nil
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to postgres: %w", err)
	}
	return pool, nil
}

func newObjectStore(cfg *config.Config) (*minio.ObjectStoreImpl, error) {
	return minio.NewObjectStore(minio.Options{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
}

func newValidator(cfg *config.Config, log *zap.Logger) *usecase.URLValidator {
	return usecase.NewURLValidator(net.DefaultResolver, usecase.ValidatorOptions{
		ExtraBlockedHosts: cfg.BlockedHostList(),
		AnonymitySuffixes: cfg.AnonymitySuffixList(),
		BlockUnresolved:   cfg.UnresolvedHostPolicy == "block",
	}, log)
}

func newController(cfg *config.Config, log *zap.Logger) *torctl.Controller {
	return torctl.NewController(torctl.Options{
		Addr:      cfg.TorControlAddr(),
		Password:  cfg.TorControlPassword,
		Timeout:   cfg.TorControlTimeout(),
		Stabilize: cfg.TorStabilize(),
	}, log)
}

// collection bundles the outbound side of the worker: browser, source collectors and the proxy they share.
type collection struct {
	proxies    *proxy.Manager
	fetcher    *chromedp_fetcher.ChromedpFetcher
	collectors map[entity.SourceKind]repository.SourceCollector
}

func newCollection(cfg *config.Config, log *zap.Logger) (*collection, error) {
	proxies, err := proxy.NewManager(cfg.ActiveProxy(), outboundTimeout)
	if err != nil {
		return nil, err
	}
	client, err := proxies.HTTPClient()
	if err != nil {
		return nil, err
	}

	// Behind any proxy, lookups go through its dialer; an HTTP proxy refuses them.
	var dialer xproxy.ContextDialer
	if proxies.Enabled() {
		if dialer, err = proxies.ContextDialer(); err != nil {
			return nil, err
		}
		if !proxies.IsSOCKS() {
			log.Warn("proxy cannot carry DNS, certificate subdomains will be reported unresolved")
		}
	}
	resolver := sources.NewDNSResolver(cfg.Nameservers(), dialer, dnsTimeout)

	codeHost, err := sources.NewCodeHostCollector(client, cfg.GitHubToken, "", log)
	if err != nil {
		return nil, err
	}

	return &collection{
		proxies: proxies,
		fetcher: chromedp_fetcher.NewChromedpFetcher(proxies, cfg.NavigationTimeout(), log),
		collectors: map[entity.SourceKind]repository.SourceCollector{
			entity.SourceFeed:     sources.NewFeedCollector(client, log),
			entity.SourceSocial:   sources.NewSocialCollector(client, cfg.MastodonBaseURL, cfg.MastodonAccessToken, log),
			entity.SourceCodeHost: codeHost,
			entity.SourceCertificate: sources.NewCertificateCollector(client, resolver, sources.CertificateOptions{
				BaseURL:        cfg.CTLogURL,
				MaxSubdomains:  cfg.MaxSubdomains,
				DNSConcurrency: cfg.DNSConcurrency,
			}, log),
		},
	}, nil
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
