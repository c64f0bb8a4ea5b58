package rag

import (
	"errors"

	"github.com/hyperjump/prana/internal/retrieval"
)

var (
	// ErrValidation marks a malformed request (missing query, queryId or helpful flag, bad rating).
	ErrValidation = errors.New("invalid request")
	// ErrRetrieval marks a failure to embed the query or search the index.
	ErrRetrieval = retrieval.ErrRetrieval
	// ErrGeneration marks a failure of the answer generator.
	ErrGeneration = errors.New("generation failed")
	// ErrNotFound is returned by Feedback for an unknown queryId.
	ErrNotFound = errors.New("interaction not found")
	// ErrInternal marks an unexpected failure, such as a panic in a collaborator.
	ErrInternal = errors.New("internal error")
)
