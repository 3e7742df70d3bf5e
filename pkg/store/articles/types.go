package articles

import "time"

// Article is a generated or hand-edited news piece moving through the
// draft → published → archived lifecycle.
type Article struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	Content             string     `json:"content"`
	VoiceScore          float64    `json:"voice_score"`
	QualityScore        float64    `json:"quality_score"`
	RelevanceScore      float64    `json:"relevance_score"`
	EngagementPotential float64    `json:"engagement_potential"`
	Status              string     `json:"status"`
	Category            string     `json:"category"`
	Tags                []string   `json:"tags"`
	WordCount           int        `json:"word_count"`
	SourceURL           string     `json:"source_url"`
	SourceTitle         string     `json:"source_title"`
	SourceDescription   string     `json:"source_description"`
	ImageURL            string     `json:"image_url"`
	ImageAltText        string     `json:"image_alt_text"`
	PublishedAt         *time.Time `json:"published_at"`
	AppPublished        bool       `json:"app_published"`
	AppPublishedAt      *time.Time `json:"app_published_at"`
	SocialMediaPosted   bool       `json:"social_media_posted"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Mentions []ArticleMention `json:"mentions,omitempty"`
}

// ArticleMention is the partner-facing slice of a mention row joined onto a
// single-article read.
type ArticleMention struct {
	ID             int64   `json:"id"`
	MentionType    string  `json:"mention_type"`
	RelevanceScore float64 `json:"relevance_score"`
	MentionContext string  `json:"mention_context"`
	CreditsCharged int64   `json:"credits_charged"`
	Verified       bool    `json:"verified"`
	PartnerID      int64   `json:"business_partner_id"`
	BusinessName   string  `json:"business_name"`
	PartnershipTier string `json:"partnership_tier"`
}

// Categories an article may carry. Validation happens at the store so every
// write path (HTTP or worker) goes through the same gate.
var validCategories = map[string]bool{
	"breaking_news":    true,
	"community_events": true,
	"business":         true,
	"government":       true,
	"schools":          true,
	"development":      true,
	"lifestyle":        true,
	"weather":          true,
	"traffic":          true,
}

type CreateArticleParams struct {
	Title               string
	Content             string
	Category            string
	Status              string
	Tags                []string
	VoiceScore          float64
	QualityScore        float64
	RelevanceScore      float64
	EngagementPotential float64
	WordCount           *int
	SourceURL           string
	SourceTitle         string
	SourceDescription   string
	ImageURL            string
	ImageAltText        string
}

type UpdateArticleParams struct {
	Title               *string
	Content             *string
	Category            *string
	Status              *string
	Tags                []string
	VoiceScore          *float64
	QualityScore        *float64
	RelevanceScore      *float64
	EngagementPotential *float64
	WordCount           *int
	ImageURL            *string
	ImageAltText        *string
}

type ArticleFilter struct {
	Status    string
	Category  string
	Published *bool
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// ArticlePage is a page of list results plus pagination bookkeeping.
type ArticlePage struct {
	Articles []Article `json:"articles"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	Total    int64     `json:"total"`
	Pages    int64     `json:"pages"`
}

// Stats is the overview rollup served by the analytics endpoints.
type Stats struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"by_status"`
	ByCategory   map[string]int64 `json:"by_category"`
	AverageWords float64          `json:"average_words"`
}
