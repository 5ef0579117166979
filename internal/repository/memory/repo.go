// Package memory persists the append-only memory record table.
//
// Layout: one counter key is the identity source, one list holds record ids
// in insertion order (ascending id), and one hash per record holds its
// fields. A record hash is written before its id enters the ledger, so a
// scan never observes an id without a readable record. The server executes
// commands serially, which makes each insert an atomic commit relative to
// concurrent scans: a scan sees exactly the ids present when its LRANGE ran.
package memory

import (
	"context"
	"fmt"

	"github.com/promethia-ai/promethia/internal/domain"
)

const (
	seqKey    = domain.KeyPrefix + "mem:seq"
	ledgerKey = domain.KeyPrefix + "mem:ids"
	recPrefix = domain.KeyPrefix + "mem:rec:"
)

// store is the consumer interface for the memory table (ISP).
type store interface {
	Incr(ctx context.Context, key string) (int64, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// Repo implements usecase/memory.Repository over a db.Store.
type Repo struct {
	store store
}

// New creates a memory repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert persists a record and returns its assigned identifier.
// The record's ID and CreatedAt fields are ignored on input.
func (r *Repo) Insert(ctx context.Context, rec domain.MemoryRecord) (int64, error) {
	id, err := r.store.Incr(ctx, seqKey)
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	rec.ID = id

	if err := r.store.HSet(ctx, recordKey(id), recordToFields(rec)); err != nil {
		return 0, fmt.Errorf("write record %d: %w", id, err)
	}
	// Ledger append goes last: an id becomes scannable only once its
	// record hash exists.
	if err := r.store.RPush(ctx, ledgerKey, formatID(id)); err != nil {
		return 0, fmt.Errorf("append id %d: %w", id, err)
	}
	return id, nil
}

// All returns every record in ascending-id order. The returned slice is a
// consistent snapshot of the ids committed before the scan started.
func (r *Repo) All(ctx context.Context) ([]domain.MemoryRecord, error) {
	ids, err := r.store.LRange(ctx, ledgerKey, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	return r.fetch(ctx, ids)
}

// Recent returns up to limit records, newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]domain.MemoryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := r.store.LRange(ctx, ledgerKey, int64(-limit), -1)
	if err != nil {
		return nil, fmt.Errorf("scan ids: %w", err)
	}
	recs, err := r.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// Count returns the number of committed records.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	n, err := r.store.LLen(ctx, ledgerKey)
	if err != nil {
		return 0, fmt.Errorf("count ids: %w", err)
	}
	return n, nil
}

func (r *Repo) fetch(ctx context.Context, ids []string) ([]domain.MemoryRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recPrefix + id
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	recs := make([]domain.MemoryRecord, 0, len(hashes))
	for i, fields := range hashes {
		rec, err := recordFromFields(ids[i], fields)
		if err != nil {
			return nil, fmt.Errorf("decode record %s: %w", ids[i], err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
