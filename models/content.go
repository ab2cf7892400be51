package models

import (
	"strings"
	"time"
)

// Content is the example resource shipped with the template.
// Replace with the *things* your application manages.
type Content struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Text        string    `json:"text" db:"text"`
	Published   bool      `json:"published" db:"published"`
	CreatedTime time.Time `json:"created_time" db:"created_time"`
	Tags        string    `json:"-" db:"tags"` // comma-separated in the database
	UserID      int64     `json:"user_id" db:"user_id"`
}

// TableName returns the table name for the Content model
func (Content) TableName() string {
	return "content"
}

// TagList returns the tags as a list
func (c *Content) TagList() []string {
	if c.Tags == "" {
		return []string{}
	}
	return strings.Split(c.Tags, ",")
}

// SetTags stores a tag list in the database representation
func (c *Content) SetTags(tags []string) {
	c.Tags = strings.Join(tags, ",")
}

// ContentIncoming is the request body for POST/PATCH requests
type ContentIncoming struct {
	Title     *string  `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Text      *string  `json:"text,omitempty"`
	Published *bool    `json:"published,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Slug derives the URL slug from the title
func (in *ContentIncoming) Slug() string {
	if in.Title == nil {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(*in.Title), " ", "-")
}

// ContentResponse is the content representation exposed on the API
type ContentResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Text        string    `json:"text"`
	Published   bool      `json:"published"`
	CreatedTime time.Time `json:"created_time"`
	Tags        []string  `json:"tags"`
	UserID      int64     `json:"user_id"`
}

// ToResponse converts a Content to its API representation
func (c *Content) ToResponse() ContentResponse {
	return ContentResponse{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		Text:        c.Text,
		Published:   c.Published,
		CreatedTime: c.CreatedTime,
		Tags:        c.TagList(),
		UserID:      c.UserID,
	}
}
