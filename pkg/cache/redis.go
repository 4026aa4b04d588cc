package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "stepflow:workflow-view:"
	generationPrefix = "stepflow:workflow-view-generation:"
)

// Redis keeps views as JSON strings with a TTL, next to a per-workflow
// generation counter that Invalidate increments.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedis(client, ttl), nil
}

func key(workflowID string) string {
	return keyPrefix + workflowID
}

func generationKey(workflowID string) string {
	return generationPrefix + workflowID
}

// parseGeneration treats a missing counter as generation 0.
func parseGeneration(cmd *redis.StringCmd) (int64, error) {
	generation, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return generation, err
}

func (r *Redis) Get(ctx context.Context, workflowID string) (*models.WorkflowView, bool, error) {
	body, err := r.client.Get(ctx, key(workflowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to read cached view: %w", err)
	}

	var view models.WorkflowView

	err = json.Unmarshal(body, &view)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode cached view: %w", err)
	}

	return &view, true, nil
}

func (r *Redis) Generation(ctx context.Context, workflowID string) (int64, error) {
	generation, err := parseGeneration(r.client.Get(ctx, generationKey(workflowID)))
	if err != nil {
		return 0, fmt.Errorf("failed to read view generation: %w", err)
	}

	return generation, nil
}

// Set stores view only while the workflow is still at generation. The
// counter is WATCHed, so an Invalidate racing the write aborts it.
func (r *Redis) Set(ctx context.Context, view *models.WorkflowView, generation int64) error {
	body, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := parseGeneration(tx.Get(ctx, generationKey(view.ID)))
		if err != nil {
			return fmt.Errorf("failed to read view generation: %w", err)
		}

		if current != generation {
			return ErrStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(view.ID), body, r.ttl)

			return nil
		})

		return err
	}, generationKey(view.ID))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		return ErrStale
	default:
		return fmt.Errorf("failed to cache view: %w", err)
	}
}

// Invalidate bumps the generation and drops the view in one MULTI.
func (r *Redis) Invalidate(ctx context.Context, workflowID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(workflowID))
		pipe.Del(ctx, key(workflowID))

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached view: %w", err)
	}

	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
