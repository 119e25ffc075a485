// Package cache keeps read-through copies of project boards so repeated board
// renders skip the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ALT-F4-LLC/taskboard/internal/db"
	"github.com/ALT-F4-LLC/taskboard/internal/model"
)

// TTL bounds how stale a cached board can get when another client writes
// without invalidating.
const TTL = 5 * time.Minute

// Boards caches the issue list of a project board.
type Boards interface {
	Get(ctx context.Context, projectID int) ([]*model.Issue, bool, error)
	Set(ctx context.Context, projectID int, issues []*model.Issue) error
	Invalidate(ctx context.Context, projectID int) error
	Close() error
}

// New returns a Redis-backed cache for url, or a no-op cache when url is
// empty.
func New(url string) (Boards, error) {
	if url == "" {
		return Noop{}, nil
	}
	return NewRedis(url)
}

// Noop caches nothing.
type Noop struct{}

func (Noop) Get(context.Context, int) ([]*model.Issue, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, int, []*model.Issue) error         { return nil }
func (Noop) Invalidate(context.Context, int) error                  { return nil }
func (Noop) Close() error                                           { return nil }

// Redis stores each board as a JSON array under board:<project id>.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to the Redis server at url and checks that it answers.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "board:", ttl: TTL}
}

func (r *Redis) key(projectID int) string {
	return r.prefix + strconv.Itoa(projectID)
}

// Get returns the cached board and whether there was one.
func (r *Redis) Get(ctx context.Context, projectID int) ([]*model.Issue, bool, error) {
	raw, err := r.client.Get(ctx, r.key(projectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached board: %w", err)
	}
	var issues []*model.Issue
	if err := json.Unmarshal(raw, &issues); err != nil {
		return nil, false, fmt.Errorf("decode cached board: %w", err)
	}
	return issues, true, nil
}

// Set caches a board for TTL.
func (r *Redis) Set(ctx context.Context, projectID int, issues []*model.Issue) error {
	if issues == nil {
		issues = []*model.Issue{}
	}
	raw, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	if err := r.client.Set(ctx, r.key(projectID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache board: %w", err)
	}
	return nil
}

// Invalidate drops a cached board. Dropping a board that is not cached is
// not an error.
func (r *Redis) Invalidate(ctx context.Context, projectID int) error {
	if err := r.client.Del(ctx, r.key(projectID)).Err(); err != nil {
		return fmt.Errorf("invalidate board: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Issues returns a project's issues, from the cache when possible. Cache
// failures are logged and fall back to the gateway; they never fail the
// read.
func Issues(ctx context.Context, c Boards, gw db.Gateway, projectID int) ([]*model.Issue, error) {
	if issues, ok, err := c.Get(ctx, projectID); err != nil {
		slog.Warn("board cache read failed", "project", projectID, "err", err)
	} else if ok {
		return issues, nil
	}

	issues, err := db.ListIssues(ctx, gw, db.IssueFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, projectID, issues); err != nil {
		slog.Warn("board cache write failed", "project", projectID, "err", err)
	}
	return issues, nil
}
