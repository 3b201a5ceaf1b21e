// Package store persists analyses as versioned entries per namespace and key.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/convoq/internal/model"
)

// ErrNotFound is returned when no live analysis matches a lookup.
var ErrNotFound = errors.New("analysis not found")

// PutParams holds parameters for storing an analysis.
type PutParams struct {
	NS     string
	Key    string
	Report *model.Report
}

// GetParams holds parameters for retrieving an analysis.
type GetParams struct {
	NS      string
	Key     string
	History bool
	Version int // 0 means latest
}

// ListParams holds parameters for listing analyses.
type ListParams struct {
	NS      string
	Persona string
	Status  string
	Limit   int
}

// RmParams holds parameters for deleting an analysis.
type RmParams struct {
	NS          string
	Key         string
	AllVersions bool
	Hard        bool
}

// Store defines the analysis storage interface.
type Store interface {
	// Put stores a new version of the analysis for ns/key.
	Put(ctx context.Context, p PutParams) (*model.Analysis, error)

	// Get retrieves analyses by namespace and key.
	// Returns a slice (single element normally, every version with History=true).
	Get(ctx context.Context, p GetParams) ([]model.Analysis, error)

	// Recent returns up to limit snapshots of ns/key, newest first.
	Recent(ctx context.Context, ns, key string, limit int) ([]model.Snapshot, error)

	// List lists the latest analysis of each key matching the filters.
	List(ctx context.Context, p ListParams) ([]model.Analysis, error)

	// Rm soft-deletes (or hard-deletes) an analysis.
	Rm(ctx context.Context, p RmParams) error

	// Close closes the store.
	Close() error
}
