// Package po defines the record shapes exchanged with the book recommender
// API and mirrored to the audit topics.
package po

// CatalogRecord is one scraped book. Written once via PUT /entities/{id};
// this pipeline never updates an existing record.
type CatalogRecord struct {
	EntityID        int64      `json:"entity_id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	AuthorURL       string     `json:"author_url,omitempty"`
	Description     *string    `json:"description,omitempty"`
	ISBN            *string    `json:"isbn,omitempty"`
	ISBN13          *string    `json:"isbn13,omitempty"`
	Language        *string    `json:"language,omitempty"`
	NumPages        *int64     `json:"num_pages,omitempty"`
	Series          *string    `json:"series,omitempty"`
	Genres          []string   `json:"genres,omitempty"`
	AvgRating       float64    `json:"avg_rating"`
	NumRatings      *int64     `json:"num_ratings,omitempty"`
	NumReviews      *int64     `json:"num_reviews,omitempty"`
	RatingHistogram []int64    `json:"rating_histogram"`
	PublishedAt     *Timestamp `json:"published_at,omitempty"`
	ScrapedAt       Timestamp  `json:"scraped_at"`
}

// ActivityRecord is one reader's interaction with one book, composite-keyed
// by (owner_id, entity_id). At most one durable copy should exist downstream;
// duplicates arriving from upstream are expected and harmless.
type ActivityRecord struct {
	OwnerID    int64     `json:"owner_id"`
	EntityID   int64     `json:"entity_id"`
	Rating     int       `json:"rating"`
	OccurredAt Timestamp `json:"occurred_at"`
	ObservedAt Timestamp `json:"observed_at"`
}
