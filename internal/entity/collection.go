package entity

// SourceKind is the closed set of collectors a task can be routed to.
type SourceKind int

const (
	SourceWeb SourceKind = iota
	SourceFeed
	SourceSocial
	SourceCodeHost
	SourceCertificate
)

func (k SourceKind) String() string {
	switch k {
	case SourceWeb:
		return "web"
	case SourceFeed:
		return "rss"
	case SourceSocial:
		return "sns"
	case SourceCodeHost:
		return "git"
	case SourceCertificate:
		return "infra"
	default:
		return "unknown"
	}
}

// Target is a classified task target: which collector runs and what it is given.
type Target struct {
	Kind     SourceKind
	Query    string // URL for web and feed targets, a search term or domain otherwise
	Platform string // social network name for SourceSocial
}

// CollectionResult is the structured output of a source collector.
type CollectionResult struct {
	SourceType string `json:"source_type"`
	Platform   string `json:"platform,omitempty"`
	Source     string `json:"source,omitempty"`
	Query      string `json:"query"`
	Timestamp  string `json:"timestamp"`
	FeedTitle  string `json:"feed_title,omitempty"`
	Note       string `json:"note,omitempty"`
	Data       []any  `json:"data"`
}

// Capture is what the browser fetch path returns.
type Capture struct {
	HTML       []byte
	Screenshot []byte
	StatusCode int
	Title      string
}

// FeedItem is one normalized feed entry.
type FeedItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"`
	Author    string `json:"author"`
}

// SocialAccount identifies the author of a social post.
type SocialAccount struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// SocialPost is one normalized status from a social network search.
type SocialPost struct {
	Content   string        `json:"content"`
	URL       string        `json:"url"`
	CreatedAt string        `json:"created_at"`
	Account   SocialAccount `json:"account"`
}

// CodeHostProfile is one normalized user profile from a code-host search.
type CodeHostProfile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Blog        string `json:"blog"`
	Location    string `json:"location"`
	Email       string `json:"email"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	URL         string `json:"url"`
}

// Subdomain is a certificate-transparency candidate; IP is nil when the name did not resolve.
type Subdomain struct {
	Domain string  `json:"domain"`
	IP     *string `json:"ip"`
}
