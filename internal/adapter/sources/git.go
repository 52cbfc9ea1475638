package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
)

// MaxCodeHostResults caps profile lookups per search to stay inside API rate limits.
const MaxCodeHostResults = 5

// CodeHostCollector searches users on GitHub and expands each hit into a full profile.
type CodeHostCollector struct {
	client *github.Client
	logger *zap.Logger
}

// NewCodeHostCollector builds a collector; baseURL overrides the API endpoint when non-empty.
func NewCodeHostCollector(httpClient *http.Client, token, baseURL string, logger *zap.Logger) (*CodeHostCollector, error) {
	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid code host url: %w", err)
		}
		if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
			u.Path += "/"
		}
		client.BaseURL = u
	}
	return &CodeHostCollector{client: client, logger: logger.Named("codehost")}, nil
}

func (c *CodeHostCollector) Collect(ctx context.Context, target entity.Target) (*entity.CollectionResult, error) {
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: MaxCodeHostResults}}
	found, _, err := c.client.Search.Users(ctx, target.Query, opts)
	if err != nil {
		return nil, fmt.Errorf("code host user search failed: %w", err)
	}

	users := found.Users
	if len(users) > MaxCodeHostResults {
		users = users[:MaxCodeHostResults]
	}

	result := newResult(entity.SourceCodeHost, target.Query)
	result.Source = "github"
	for _, hit := range users {
		user, _, err := c.client.Users.Get(ctx, hit.GetLogin())
		if err != nil {
			// Keep the search hit even if the profile lookup is throttled.
			c.logger.Warn("profile lookup failed", zap.String("login", hit.GetLogin()), zap.Error(err))
			user = hit
		}
		result.Data = append(result.Data, entity.CodeHostProfile{
			Login:       user.GetLogin(),
			Name:        user.GetName(),
			Company:     user.GetCompany(),
			Blog:        user.GetBlog(),
			Location:    user.GetLocation(),
			Email:       user.GetEmail(),
			Bio:         user.GetBio(),
			PublicRepos: user.GetPublicRepos(),
			URL:         user.GetHTMLURL(),
		})
	}

	c.logger.Info("code host search collected", zap.String("query", target.Query), zap.Int("profiles", len(result.Data)))
	return result, nil
}
