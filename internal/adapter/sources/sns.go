package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/mattn/go-mastodon"
	"go.uber.org/zap"
)

const (
	PlatformMastodon = "mastodon"
	PlatformTwitter  = "twitter"
)

// SocialCollector searches public posts. Unconfigured platforms yield an empty result with a note.
type SocialCollector struct {
	client      *http.Client
	baseURL     string
	accessToken string
	logger      *zap.Logger
}

func NewSocialCollector(client *http.Client, baseURL, accessToken string, logger *zap.Logger) *SocialCollector {
	return &SocialCollector{
		client:      client,
		baseURL:     baseURL,
		accessToken: accessToken,
		logger:      logger.Named("social"),
	}
}

func (c *SocialCollector) Collect(ctx context.Context, target entity.Target) (*entity.CollectionResult, error) {
	platform := target.Platform
	if platform == "" {
		platform = PlatformMastodon
	}

	result := newResult(entity.SourceSocial, target.Query)
	result.Platform = platform

	switch platform {
	case PlatformMastodon:
		return c.searchMastodon(ctx, result)
	case PlatformTwitter:
		result.Note = "Twitter search requires a paid API tier and is not configured"
		c.logger.Warn("twitter search skipped", zap.String("query", target.Query))
		return result, nil
	default:
		result.Note = fmt.Sprintf("unsupported social platform %q", platform)
		c.logger.Warn("unsupported platform", zap.String("platform", platform))
		return result, nil
	}
}

func (c *SocialCollector) searchMastodon(ctx context.Context, result *entity.CollectionResult) (*entity.CollectionResult, error) {
	if c.accessToken == "" {
		result.Note = "Mastodon access token not configured"
		c.logger.Warn("mastodon search skipped, no access token", zap.String("query", result.Query))
		return result, nil
	}

	client := mastodon.NewClient(&mastodon.Config{
		Server:      c.baseURL,
		AccessToken: c.accessToken,
	})
	if c.client != nil {
		client.Client = *c.client
	}

	results, err := client.Search(ctx, result.Query, false)
	if err != nil {
		return nil, fmt.Errorf("mastodon search failed: %w", err)
	}

	result.Source = c.baseURL
	for _, status := range results.Statuses {
		result.Data = append(result.Data, entity.SocialPost{
			Content:   status.Content,
			URL:       status.URL,
			CreatedAt: status.CreatedAt.UTC().Format(time.RFC3339),
			Account: entity.SocialAccount{
				Username:    status.Account.Username,
				DisplayName: status.Account.DisplayName,
				URL:         status.Account.URL,
			},
		})
	}

	c.logger.Info("social search collected", zap.String("platform", PlatformMastodon), zap.Int("posts", len(result.Data)))
	return result, nil
}
