// Package cache stores composed workflow views between mutations.
package cache

import (
	"context"
	"errors"

	"github.com/dukex/stepflow/pkg/models"
)

// ErrStale is returned by Set when the workflow was invalidated after the
// generation was read. The view is not stored.
var ErrStale = errors.New("workflow view is stale")

// ViewCache holds workflow views keyed by workflow id. Every mutation of a
// workflow must call Invalidate before the change is reported as done.
//
// Readers take the Generation before composing a view and hand it to Set, so
// a view built from data older than the latest Invalidate is never stored.
type ViewCache interface {
	// Get reports false when no view is cached.
	Get(ctx context.Context, workflowID string) (*models.WorkflowView, bool, error)
	// Generation counts the invalidations of a workflow.
	Generation(ctx context.Context, workflowID string) (int64, error)
	Set(ctx context.Context, view *models.WorkflowView, generation int64) error
	Invalidate(ctx context.Context, workflowID string) error
	Close() error
}

// Noop never caches anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*models.WorkflowView, bool, error) {
	return nil, false, nil
}

func (Noop) Generation(context.Context, string) (int64, error) {
	return 0, nil
}

func (Noop) Set(context.Context, *models.WorkflowView, int64) error {
	return nil
}

func (Noop) Invalidate(context.Context, string) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
