package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn abstracts a backend's bulk insert for one destination table. It
// returns the number of rows reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn per non-empty batch. It returns the rows reported by copyFn,
// the number of successful batches and the first error.
//
// Cancellation returns ctx.Err(). Progress is logged per flush.
func LoadBatches(
	ctx context.Context,
	table string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (total, batches int64, err error) {
	if batchSize <= 0 {
		return 0, 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Printf("loader: table=%s copy failed after=%d total=%d err=%v", table, n, total, err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Printf("loader: table=%s batch=%d rps=%.0f inserted=%d total=%d elapsed=%s",
			table, batches, rps, n, total, now.Sub(start).Truncate(time.Millisecond))
		lastFlushTS = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, batches, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, batches, err
				}
				return total, batches, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, batches, err
				}
			}
		}
	}
}
