package postgres

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bistro/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
		(id, submission_key, items, total, customer_name, customer_phone, customer_address, status, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (submission_key) DO NOTHING`

	getOrderBySubmissionKeySQL = `SELECT id FROM orders WHERE submission_key = $1`
)

// Sized for a long-lived process: far more submissions than any one instance
// sees between restarts, at a false-positive rate where a stray hit costs one
// extra SELECT.
const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
//
// Duplicate submissions are suppressed by submission key: a bloom filter of
// keys this instance has seen short-circuits the common duplicate (a client
// retrying the same attempt) to a lookup, and the unique index on
// submission_key guarantees at most one row per attempt even across
// instances.
type OrderStore struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{
		pool: pool,
		seen: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// Submit persists the order and returns its store-assigned id. Resubmitting
// an order with a submission key already persisted returns the existing id
// instead of creating a second record.
func (s *OrderStore) Submit(ctx context.Context, o *order.Order) (string, error) {
	if s.maybeSeen(o.SubmissionKey) {
		if id, err := s.findBySubmissionKey(ctx, o.SubmissionKey); err == nil && id != "" {
			return id, nil
		}
		// Bloom false positive or racing insert: fall through to the insert,
		// which the unique index keeps safe.
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return "", errors.Wrap(err, "marshal order items")
	}

	id := uuid.New().String()
	tag, err := s.pool.Exec(ctx, insertOrderSQL,
		id, o.SubmissionKey, itemsJSON, o.Total,
		o.Customer.Name, o.Customer.Phone, o.Customer.Address,
		string(o.Status), o.PlacedAt,
	)
	if err != nil {
		return "", errors.Wrapf(err, "insert order %q", id)
	}

	s.markSeen(o.SubmissionKey)

	if tag.RowsAffected() == 0 {
		// Another submission with the same key won the insert.
		existing, err := s.findBySubmissionKey(ctx, o.SubmissionKey)
		if err != nil {
			return "", errors.Wrap(err, "resolve duplicate submission")
		}
		return existing, nil
	}

	return id, nil
}

func (s *OrderStore) findBySubmissionKey(ctx context.Context, key string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, getOrderBySubmissionKeySQL, key).Scan(&id); err != nil {
		return "", errors.Wrapf(err, "find order by submission key")
	}
	return id, nil
}

func (s *OrderStore) maybeSeen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.TestString(key)
}

func (s *OrderStore) markSeen(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen.AddString(key)
}
