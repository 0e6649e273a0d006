package database

import (
	"context"
	"time"
)

const (
	// DefaultBatchSize keeps a single upsert under the storage layer's
	// request-size and timeout limits.
	DefaultBatchSize = 100

	// chunkRetryDelay is the pause before a failed chunk's single retry.
	chunkRetryDelay = 500 * time.Millisecond
)

// ChunkFailure identifies one failed chunk by its slice bounds. Callers must
// not assume partial-chunk success: the whole chunk is reported failed.
type ChunkFailure struct {
	Start int
	End   int
	Err   error
}

// BatchResult reports per-chunk outcomes of a batched upsert.
type BatchResult struct {
	Succeeded int
	Failed    []ChunkFailure
}

// OK reports whether every chunk was written.
func (r BatchResult) OK() bool {
	return len(r.Failed) == 0
}

// runChunks splits total records into batchSize chunks and calls send for
// each. A failed chunk is retried once after a short delay; if it fails
// again the chunk is recorded and the remaining chunks are still attempted.
func runChunks(ctx context.Context, total, batchSize int, send func(start, end int) error) BatchResult {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var result BatchResult
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}

		err := send(start, end)
		if err != nil {
			select {
			case <-time.After(chunkRetryDelay):
			case <-ctx.Done():
				result.Failed = append(result.Failed, ChunkFailure{Start: start, End: end, Err: ctx.Err()})
				return result
			}
			err = send(start, end)
		}
		if err != nil {
			result.Failed = append(result.Failed, ChunkFailure{Start: start, End: end, Err: err})
			continue
		}
		result.Succeeded += end - start
	}
	return result
}
