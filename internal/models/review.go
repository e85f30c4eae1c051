package models

import (
	"time"

	"github.com/review-pipeline/internal/richtext"
)

// ReviewStatus is the publication state of a review
type ReviewStatus string

const (
	ReviewStatusDraft     ReviewStatus = "draft"
	ReviewStatusPublished ReviewStatus = "published"
)

// Review is a book review in one locale. Counters are shared across
// locales; the content fields come from the review_locales row.
type Review struct {
	ID          int64        `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Slug        string       `json:"slug" db:"slug"`
	AuthorID    int64        `json:"author_id" db:"author_id"`
	Status      ReviewStatus `json:"status" db:"status"`
	Views       int64        `json:"views" db:"views"`
	Likes       int64        `json:"likes" db:"likes"`
	PublishedAt *time.Time   `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`

	Locale  string        `json:"locale"`
	Content ReviewContent `json:"content"`
}

// Published reports whether the review is publicly visible
func (r *Review) Published() bool {
	return r != nil && r.Status == ReviewStatusPublished
}

// ReviewContent holds the localizable fields of a review
type ReviewContent struct {
	ReviewContent     *richtext.Document `json:"review_content"`
	WhatILoved        *richtext.Document `json:"what_i_loved"`
	WhatCouldBeBetter *richtext.Document `json:"what_could_be_better"`
	PerfectFor        *richtext.Document `json:"perfect_for"`
	FavoriteQuotes    []Quote            `json:"favorite_quotes"`
}

// Quote is one favourite quote with its page reference
type Quote struct {
	Quote string `json:"quote"`
	Page  string `json:"page,omitempty"`
}

// RichFields lists the rich-text fields in a fixed order with their
// column names. Pointers let callers assign translated values in place.
func (c *ReviewContent) RichFields() []RichField {
	return []RichField{
		{Name: "review_content", Doc: &c.ReviewContent},
		{Name: "what_i_loved", Doc: &c.WhatILoved},
		{Name: "what_could_be_better", Doc: &c.WhatCouldBeBetter},
		{Name: "perfect_for", Doc: &c.PerfectFor},
	}
}

// RichField is a named handle on one rich-text field
type RichField struct {
	Name string
	Doc  **richtext.Document
}

// ReviewUpdate is a write to the primary locale of a review
type ReviewUpdate struct {
	Title   *string        `json:"title,omitempty"`
	Status  *ReviewStatus  `json:"status,omitempty"`
	Content *ReviewContent `json:"content,omitempty"`
}

// CounterField names an engagement counter column
type CounterField string

const (
	CounterViews CounterField = "views"
	CounterLikes CounterField = "likes"
)

// WriteOptions modifies how a review write is processed
type WriteOptions struct {
	// SkipTranslation marks writes made by the translation engine itself.
	// They are the only writes allowed to touch a secondary locale and
	// they never trigger another translation run.
	SkipTranslation bool
}

// Clone returns a deep copy of the content
func (c *ReviewContent) Clone() *ReviewContent {
	if c == nil {
		return nil
	}
	out := &ReviewContent{
		ReviewContent:     c.ReviewContent.Clone(),
		WhatILoved:        c.WhatILoved.Clone(),
		WhatCouldBeBetter: c.WhatCouldBeBetter.Clone(),
		PerfectFor:        c.PerfectFor.Clone(),
	}
	if c.FavoriteQuotes != nil {
		out.FavoriteQuotes = append([]Quote(nil), c.FavoriteQuotes...)
	}
	return out
}
