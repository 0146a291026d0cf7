package newsapi

// Endpoints of the provider API.
const (
	EndpointEverything   = "everything"
	EndpointTopHeadlines = "top-headlines"
)

// Source is the publisher of an article.
type Source struct {
	ID   *string `json:"id,omitempty"`
	Name string  `json:"name"`
}

// Article is a single validated news item. Nullable fields are pointers.
type Article struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"publishedAt"`
	Source      Source  `json:"source"`
}

// Envelope is the provider's top-level response after validation.
// Values handed out by the cache layer are shared and must not be mutated.
type Envelope struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`

	// Dropped counts articles that failed validation. Not cached.
	Dropped int `json:"-"`
}

// QueryParams are caller-facing query options. Zero values mean "absent".
type QueryParams struct {
	Query    string
	Country  string
	Category string
	Language string
	PageSize int
}
