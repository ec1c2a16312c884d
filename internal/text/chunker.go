package text

import (
	"fmt"
	"strings"
)

// InvalidChunkConfigError reports chunking parameters that cannot produce a
// valid window sequence. It is a terminal error: retrying the same input
// cannot succeed.
type InvalidChunkConfigError struct {
	ChunkSize    int
	ChunkOverlap int
}

func (e *InvalidChunkConfigError) Error() string {
	if e.ChunkSize <= 0 {
		return fmt.Sprintf("invalid chunk config: chunk_size must be greater than 0, got %d", e.ChunkSize)
	}
	return fmt.Sprintf("invalid chunk config: chunk_overlap %d must be smaller than chunk_size %d", e.ChunkOverlap, e.ChunkSize)
}

// Chunk splits text into overlapping word windows of chunkSize words,
// advancing by chunkSize-chunkOverlap words per step. The last chunk may be
// shorter than chunkSize. Output order is window order; the slice index of
// a chunk is its persisted chunk_index. Empty text yields no chunks.
func Chunk(text string, chunkSize, chunkOverlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, &InvalidChunkConfigError{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
	}
	if chunkOverlap >= chunkSize {
		return nil, &InvalidChunkConfigError{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
	}

	words := strings.Fields(text)
	step := chunkSize - chunkOverlap

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks, nil
}
