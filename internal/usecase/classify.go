package usecase

import (
	"strings"

	"github.com/Yasuno-5555/investidabh/internal/entity"
)

// Prefixes are matched in this order; anything unmatched is fetched in the browser.
var targetPrefixes = []struct {
	prefix string
	kind   entity.SourceKind
}{
	{"rss:", entity.SourceFeed},
	{"sns:", entity.SourceSocial},
	{"git:", entity.SourceCodeHost},
	{"infra:", entity.SourceCertificate},
}

var socialPlatforms = []string{"mastodon", "twitter"}

// Classify maps a task target string to the collector that handles it.
func Classify(targetURL string) entity.Target {
	raw := strings.TrimSpace(targetURL)
	for _, p := range targetPrefixes {
		if !strings.HasPrefix(raw, p.prefix) {
			continue
		}
		target := entity.Target{Kind: p.kind, Query: strings.TrimSpace(raw[len(p.prefix):])}
		if p.kind == entity.SourceSocial {
			for _, platform := range socialPlatforms {
				if rest, ok := strings.CutPrefix(target.Query, platform+":"); ok {
					target.Platform = platform
					target.Query = strings.TrimSpace(rest)
					break
				}
			}
		}
		return target
	}
	return entity.Target{Kind: entity.SourceWeb, Query: raw}
}
