package models

import "time"

// SafetyVerdict is the outcome of the safety gate for one query.
type SafetyVerdict struct {
	IsUnsafe bool   `json:"isUnsafe"`
	Reason   string `json:"reason,omitempty"`
}

// RetrievedChunk is the audit view of a chunk that was passed to generation.
type RetrievedChunk struct {
	ChunkID string  `json:"chunkId"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// Feedback is attached to an interaction after the answer was served.
type Feedback struct {
	IsHelpful  bool      `json:"isHelpful"`
	Rating     *int      `json:"rating,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Interaction is the audit record of one ask request.
type Interaction struct {
	QueryID         string           `json:"queryId"`
	UserQuery       string           `json:"userQuery"`
	Safety          SafetyVerdict    `json:"safetyFlag"`
	RetrievedChunks []RetrievedChunk `json:"retrievedChunks"`
	AIResponse      string           `json:"aiResponse"`
	Feedback        *Feedback        `json:"feedback,omitempty"`
	ModelUsed       string           `json:"modelUsed"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}
