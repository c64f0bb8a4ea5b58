package models

import (
	"fmt"
	"strings"
)

// AskRequest is the input of the ask operation.
type AskRequest struct {
	Query string `json:"query"`
}

// Validate trims the query and returns an error if nothing is left.
func (r *AskRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return fmt.Errorf("query is required")
	}
	return nil
}

// Source is the public summary of a retrieved chunk, in rank order.
type Source struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	ArticleID ArticleID `json:"articleId,omitempty"`
}

// AskResponse is the caller-visible result of the ask operation.
type AskResponse struct {
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	IsUnsafe bool     `json:"isUnsafe"`
	QueryID  string   `json:"queryId"`
}

// FeedbackRequest rates a served answer. Helpful is a pointer so that a missing value
// can be told apart from false.
type FeedbackRequest struct {
	QueryID string `json:"queryId"`
	Helpful *bool  `json:"helpful"`
	Rating  *int   `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Validate checks required fields and the optional 1-5 rating.
func (r *FeedbackRequest) Validate() error {
	r.QueryID = strings.TrimSpace(r.QueryID)
	if r.QueryID == "" {
		return fmt.Errorf("queryId is required")
	}
	if r.Helpful == nil {
		return fmt.Errorf("helpful status is required")
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5, got %d", *r.Rating)
	}
	r.Comment = strings.TrimSpace(r.Comment)
	return nil
}

// FeedbackResponse acknowledges stored feedback.
type FeedbackResponse struct {
	Message string `json:"message"`
	QueryID string `json:"queryId"`
}
