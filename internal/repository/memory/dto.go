package memory

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/promethia-ai/promethia/internal/domain"
)

// Hash field names of a persisted record.
const (
	fieldNamespace = "namespace"
	fieldText      = "text"
	fieldEmbedding = "embedding"
	fieldCreatedAt = "created_at"
)

func recordKey(id int64) string {
	return recPrefix + formatID(id)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func recordToFields(rec domain.MemoryRecord) map[string]string {
	return map[string]string{
		fieldNamespace: rec.Namespace,
		fieldText:      rec.Text,
		fieldEmbedding: string(vectorToBytes(rec.Embedding)),
		fieldCreatedAt: strconv.FormatInt(rec.CreatedAt, 10),
	}
}

func recordFromFields(id string, fields map[string]string) (domain.MemoryRecord, error) {
	if len(fields) == 0 {
		return domain.MemoryRecord{}, fmt.Errorf("record hash is empty")
	}

	recID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return domain.MemoryRecord{}, fmt.Errorf("invalid id %q: %w", id, err)
	}

	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return domain.MemoryRecord{}, fmt.Errorf("invalid created_at %q: %w", fields[fieldCreatedAt], err)
	}

	vec, err := bytesToVector([]byte(fields[fieldEmbedding]))
	if err != nil {
		return domain.MemoryRecord{}, err
	}

	return domain.MemoryRecord{
		ID:        recID,
		Namespace: fields[fieldNamespace],
		Text:      fields[fieldText],
		Embedding: vec,
		CreatedAt: createdAt,
	}, nil
}

// vectorToBytes encodes a vector as fixed-width little-endian float32.
func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
