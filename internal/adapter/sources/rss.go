package sources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// FeedCollector parses RSS, Atom and JSON feeds into normalized items.
type FeedCollector struct {
	client *http.Client
	logger *zap.Logger
}

func NewFeedCollector(client *http.Client, logger *zap.Logger) *FeedCollector {
	return &FeedCollector{client: client, logger: logger.Named("feed")}
}

func (c *FeedCollector) Collect(ctx context.Context, target entity.Target) (*entity.CollectionResult, error) {
	fp := gofeed.NewParser()
	fp.Client = c.client

	feed, err := fp.ParseURLWithContext(target.Query, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", target.Query, err)
	}

	result := newResult(entity.SourceFeed, target.Query)
	result.Source = target.Query
	result.FeedTitle = feed.Title
	for _, item := range feed.Items {
		result.Data = append(result.Data, entity.FeedItem{
			Title:     item.Title,
			Link:      item.Link,
			Summary:   item.Description,
			Published: item.Published,
			Author:    authorName(item),
		})
	}

	c.logger.Info("feed collected", zap.String("feed", target.Query), zap.Int("items", len(result.Data)))
	return result, nil
}

func authorName(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}
