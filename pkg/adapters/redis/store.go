package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/facilitator/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "facilitator:"

// Store implements ports.NodeExecutionStore using Redis.
//
// Layout:
//
//	<prefix>ne:<id>          current record (JSON)
//	<prefix>ne:<id>:history  list of snapshots (JSON), oldest first
//	<prefix>plan:<peid>      set of node execution ids of a plan execution
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration applied to every key of a record.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(id string) string {
	return s.prefix + "ne:" + id
}

func (s *Store) historyKey(id string) string {
	return s.prefix + "ne:" + id + ":history"
}

func (s *Store) planKey(planExecutionID string) string {
	return s.prefix + "plan:" + planExecutionID
}

// Save persists a new record. The existence check and the writes run in one
// optimistic transaction on the record key.
func (s *Store) Save(ctx context.Context, exec *domain.NodeExecution) error {
	exec.Version = 0
	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("failed to marshal node execution: %w", err)
	}

	key := s.key(exec.ID)
	err = s.client.Watch(ctx, func(tx *backend.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrDuplicateKey
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.RPush(ctx, s.historyKey(exec.ID), data)
			pipe.SAdd(ctx, s.planKey(exec.Ambiance.PlanExecutionID), exec.ID)
			if s.ttl > 0 {
				pipe.Expire(ctx, s.historyKey(exec.ID), s.ttl)
				pipe.Expire(ctx, s.planKey(exec.Ambiance.PlanExecutionID), s.ttl)
			}
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrDuplicateKey), errors.Is(err, backend.TxFailedErr):
		return domain.ErrDuplicateKey
	default:
		return fmt.Errorf("failed to save to redis: %w", err)
	}
}

// Get retrieves the record from Redis.
func (s *Store) Get(ctx context.Context, id string) (*domain.NodeExecution, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrNodeExecutionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return decode(val)
}

// Find retrieves the record addressed by the ambiance leaf.
func (s *Store) Find(ctx context.Context, ambiance domain.Ambiance) (*domain.NodeExecution, error) {
	return s.Get(ctx, ambiance.CurrentRuntimeID())
}

// Update replaces the record if exec.Version still matches the stored one.
func (s *Store) Update(ctx context.Context, exec *domain.NodeExecution) error {
	key := s.key(exec.ID)
	next := exec.Snapshot()
	next.Version = exec.Version + 1

	err := s.client.Watch(ctx, func(tx *backend.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == backend.Nil {
			return domain.ErrNodeExecutionNotFound
		}
		if err != nil {
			return err
		}
		stored, err := decode(val)
		if err != nil {
			return err
		}
		if stored.Version != exec.Version {
			return domain.ErrVersionConflict
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal node execution: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.RPush(ctx, s.historyKey(exec.ID), data)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		exec.Version = next.Version
		return nil
	case errors.Is(err, domain.ErrNodeExecutionNotFound), errors.Is(err, domain.ErrVersionConflict):
		return err
	case errors.Is(err, backend.TxFailedErr):
		return domain.ErrVersionConflict
	default:
		return fmt.Errorf("failed to update in redis: %w", err)
	}
}

// History returns every snapshot of a record.
func (s *Store) History(ctx context.Context, id string) ([]*domain.NodeExecution, error) {
	vals, err := s.client.LRange(ctx, s.historyKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNodeExecutionNotFound
	}

	out := make([]*domain.NodeExecution, 0, len(vals))
	for _, v := range vals {
		exec, err := decode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, exec)
	}
	return out, nil
}

// ListByPlanExecution returns the records of a plan execution ordered by start time.
func (s *Store) ListByPlanExecution(ctx context.Context, planExecutionID string) ([]*domain.NodeExecution, error) {
	ids, err := s.client.SMembers(ctx, s.planKey(planExecutionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list plan execution: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load plan execution nodes: %w", err)
	}

	out := make([]*domain.NodeExecution, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// Expired between SMEMBERS and MGET.
			continue
		}
		exec, err := decode(str)
		if err != nil {
			return nil, err
		}
		out = append(out, exec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTs.Equal(out[j].StartTs) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTs.Before(out[j].StartTs)
	})
	return out, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(val string) (*domain.NodeExecution, error) {
	var exec domain.NodeExecution
	if err := json.Unmarshal([]byte(val), &exec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node execution: %w", err)
	}
	return &exec, nil
}
