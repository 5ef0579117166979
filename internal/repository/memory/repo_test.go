package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/promethia-ai/promethia/internal/domain"
)

func TestInsert_WritesRecordBeforeLedger(t *testing.T) {
	var calls []string
	ms := &mockStore{
		incrFn: func(_ context.Context, key string) (int64, error) {
			if key != seqKey {
				t.Errorf("unexpected seq key %q", key)
			}
			calls = append(calls, "incr")
			return 7, nil
		},
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			if key != recPrefix+"7" {
				t.Errorf("unexpected record key %q", key)
			}
			if fields[fieldNamespace] != "user" || fields[fieldText] != "hello" {
				t.Errorf("unexpected fields: %v", fields)
			}
			calls = append(calls, "hset")
			return nil
		},
		rpushFn: func(_ context.Context, key string, values ...string) error {
			if key != ledgerKey || len(values) != 1 || values[0] != "7" {
				t.Errorf("unexpected ledger append: key=%q values=%v", key, values)
			}
			calls = append(calls, "rpush")
			return nil
		},
	}

	repo := New(ms)
	id, err := repo.Insert(context.Background(), domain.MemoryRecord{
		Namespace: "user",
		Text:      "hello",
		Embedding: []float32{0.1, 0.2},
		CreatedAt: 1700000000000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Errorf("expected id 7, got %d", id)
	}

	want := []string{"incr", "hset", "rpush"}
	if len(calls) != len(want) {
		t.Fatalf("unexpected calls: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call order %v, want %v", calls, want)
		}
	}
}

func TestInsert_WriteFailureDoesNotAppendLedger(t *testing.T) {
	writeErr := errors.New("write failed")
	ms := &mockStore{
		hsetFn: func(_ context.Context, _ string, _ map[string]string) error {
			return writeErr
		},
		rpushFn: func(_ context.Context, _ string, _ ...string) error {
			t.Fatal("ledger must not be touched after a failed record write")
			return nil
		},
	}

	repo := New(ms)
	_, err := repo.Insert(context.Background(), domain.MemoryRecord{Text: "x"})
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestAll_RoundTrip(t *testing.T) {
	rec := domain.MemoryRecord{
		ID:        3,
		Namespace: "user",
		Text:      "the sky is blue",
		Embedding: []float32{0.5, -1.25, 3},
		CreatedAt: 1700000000000,
	}
	fields := recordToFields(rec)

	ms := &mockStore{
		lrangeFn: func(_ context.Context, key string, start, stop int64) ([]string, error) {
			if key != ledgerKey || start != 0 || stop != -1 {
				t.Errorf("unexpected scan: key=%q start=%d stop=%d", key, start, stop)
			}
			return []string{"3"}, nil
		},
		hgetAllMultiFn: func(_ context.Context, keys []string) ([]map[string]string, error) {
			if len(keys) != 1 || keys[0] != recPrefix+"3" {
				t.Errorf("unexpected keys: %v", keys)
			}
			return []map[string]string{fields}, nil
		},
	}

	repo := New(ms)
	recs, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	got := recs[0]
	if got.ID != rec.ID || got.Namespace != rec.Namespace || got.Text != rec.Text || got.CreatedAt != rec.CreatedAt {
		t.Errorf("record mismatch: %+v", got)
	}
	if len(got.Embedding) != 3 || got.Embedding[0] != 0.5 || got.Embedding[1] != -1.25 || got.Embedding[2] != 3 {
		t.Errorf("embedding mismatch: %v", got.Embedding)
	}
}

func TestAll_EmptyLedger(t *testing.T) {
	repo := New(&mockStore{})
	recs, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs != nil {
		t.Errorf("expected nil, got %v", recs)
	}
}

func TestAll_CorruptBlob(t *testing.T) {
	ms := &mockStore{
		lrangeFn: func(_ context.Context, _ string, _, _ int64) ([]string, error) {
			return []string{"1"}, nil
		},
		hgetAllMultiFn: func(_ context.Context, _ []string) ([]map[string]string, error) {
			return []map[string]string{{
				fieldNamespace: "user",
				fieldText:      "x",
				fieldEmbedding: "abc", // 3 bytes, not a float32 multiple
				fieldCreatedAt: "1",
			}}, nil
		},
	}

	repo := New(ms)
	if _, err := repo.All(context.Background()); err == nil {
		t.Fatal("expected decode error for corrupt blob")
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	recs := map[string]map[string]string{
		"2": recordToFields(domain.MemoryRecord{ID: 2, Text: "older", CreatedAt: 1}),
		"3": recordToFields(domain.MemoryRecord{ID: 3, Text: "newer", CreatedAt: 2}),
	}
	ms := &mockStore{
		lrangeFn: func(_ context.Context, _ string, start, stop int64) ([]string, error) {
			if start != -2 || stop != -1 {
				t.Errorf("unexpected range: %d..%d", start, stop)
			}
			return []string{"2", "3"}, nil
		},
		hgetAllMultiFn: func(_ context.Context, keys []string) ([]map[string]string, error) {
			out := make([]map[string]string, len(keys))
			for i, k := range keys {
				out[i] = recs[k[len(recPrefix):]]
			}
			return out, nil
		},
	}

	repo := New(ms)
	got, err := repo.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Text != "newer" || got[1].Text != "older" {
		t.Errorf("expected newest first, got %+v", got)
	}
}

func TestVectorBytes_RoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.14159}
	out, err := bytesToVector(vectorToBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d != %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("component %d: %v != %v", i, in[i], out[i])
		}
	}
}
