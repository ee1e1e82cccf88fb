// Package pproc processes streams of records in parallel. Records are
// delineated by a bufio.SplitFunc; PICA+ dumps separate records by blank
// lines.
package pproc

import (
	"bufio"
	"context"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxBufferSize = 1 << 16 // 64K, initial buffer
	defaultMaxTokenSize  = 1 << 24 // 16MB, hard limit for a single record
)

// ProcessFunc transforms a single record. A nil result is skipped.
type ProcessFunc func(ctx context.Context, record []byte) ([]byte, error)

// ProcessorOption allows configuration of the Processor
type ProcessorOption func(*Processor)

// WithWorkers sets the number of worker goroutines
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.numWorkers = n
		}
	}
}

// WithMaxTokenSize sets the maximum size of a record.
func WithMaxTokenSize(size int) ProcessorOption {
	return func(p *Processor) {
		if size > 0 {
			p.maxTokenSize = size
		}
	}
}

// WithSplitFunc replaces the default record splitter.
func WithSplitFunc(f bufio.SplitFunc) ProcessorOption {
	return func(p *Processor) {
		p.splitFunc = f
	}
}

// Processor handles parallel processing of records. Output order is not
// preserved.
type Processor struct {
	splitFunc    bufio.SplitFunc
	processFunc  ProcessFunc
	numWorkers   int
	maxTokenSize int
}

// NewProcessor creates a new Processor that by default splits on blank lines.
func NewProcessor(processFunc ProcessFunc, opts ...ProcessorOption) *Processor {
	p := &Processor{
		splitFunc:    SplitRecords,
		processFunc:  processFunc,
		numWorkers:   runtime.NumCPU(),
		maxTokenSize: defaultMaxTokenSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process reads from the input, processes records in parallel, and writes
// results to output. The first error cancels all workers.
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	scanner := bufio.NewScanner(r)
	scanner.Split(p.splitFunc)
	bufSize := defaultMaxBufferSize
	if bufSize > p.maxTokenSize {
		bufSize = p.maxTokenSize
	}
	scanner.Buffer(make([]byte, 0, bufSize), p.maxTokenSize)
	workChan := make(chan []byte, p.numWorkers*2)
	var writeMu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(workChan)
		for scanner.Scan() {
			token := scanner.Bytes()
			data := make([]byte, len(token))
			copy(data, token)
			select {
			case workChan <- data:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return scanner.Err()
	})
	for i := 0; i < p.numWorkers; i++ {
		g.Go(func() error {
			for data := range workChan {
				if err := ctx.Err(); err != nil {
					return err
				}
				result, err := p.processFunc(ctx, data)
				if err != nil {
					return err
				}
				if result != nil {
					writeMu.Lock()
					_, err := bw.Write(result)
					writeMu.Unlock()
					if err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Each calls fn for every item of ids with at most n concurrent calls. It
// stops at the first error.
func Each[T any](ctx context.Context, ids []T, n int, fn func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	if n > 0 {
		g.SetLimit(n)
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(ctx, id)
		})
	}
	return g.Wait()
}
