package domain

// KeyPrefix namespaces all persisted keys of this service.
const KeyPrefix = "promethia:"

// MemoryRecord is one persisted memory entry. Records are append-only:
// created once, never mutated. The embedding always has the store's
// fixed dimension.
type MemoryRecord struct {
	ID        int64
	Namespace string
	Text      string
	Embedding []float32
	CreatedAt int64 // unix millis
}

// MemoryMatch is a record paired with its similarity to a query.
type MemoryMatch struct {
	MemoryRecord
	Score float64
}
