package vectormemory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errCleared = errors.New("vectormemory: item discarded by Clear")

const (
	defaultBatchSize       = 10
	defaultFlushInterval   = 100 * time.Millisecond
	defaultWorkerCount     = 3
	defaultDedupThreshold  = 0.99
)

type pendingItem struct {
	id          string
	item        IndexItem
	enqueuedAt  time.Time
	resultCh    chan IndexResult
}

// Indexer is the bounded-concurrency async embed+upsert pipeline: items
// accumulate in a batch buffer flushed by size or inactivity timer, and
// a fixed-size worker pool drains completed batches off a job channel —
// one goroutine per worker, never one per item.
type Indexer struct {
	embedder       EmbeddingProvider
	backend        VectorBackend
	batchSize      int
	flushInterval  time.Duration
	dedupEnabled   bool
	dedupThreshold float64

	mu          sync.Mutex
	buffer      []*pendingItem
	timer       *time.Timer
	paused      bool
	wg          sync.WaitGroup // in-flight items, for Drain
	jobs        chan []*pendingItem
	stopCh      chan struct{}
	started     bool
	workerCount int
}

// Option configures an Indexer at construction.
type Option func(*Indexer)

// WithBatchSize overrides the default flush-trigger batch size (10).
func WithBatchSize(n int) Option { return func(i *Indexer) { i.batchSize = n } }

// WithFlushInterval overrides the default 100ms inactivity timer.
func WithFlushInterval(d time.Duration) Option { return func(i *Indexer) { i.flushInterval = d } }

// WithWorkerCount overrides the default pool size of 3.
func WithWorkerCount(n int) Option {
	return func(i *Indexer) {
		if n > 0 {
			i.workerCount = n
			i.jobs = make(chan []*pendingItem, n*2)
		}
	}
}

// WithDedup overrides dedup enablement and/or threshold (default
// enabled, 0.99).
func WithDedup(enabled bool, threshold float64) Option {
	return func(i *Indexer) {
		i.dedupEnabled = enabled
		i.dedupThreshold = threshold
	}
}

// NewIndexer constructs and starts an Indexer's worker pool.
func NewIndexer(embedder EmbeddingProvider, backend VectorBackend, opts ...Option) *Indexer {
	idx := &Indexer{
		embedder:       embedder,
		backend:        backend,
		batchSize:      defaultBatchSize,
		flushInterval:  defaultFlushInterval,
		dedupEnabled:   true,
		dedupThreshold: defaultDedupThreshold,
		jobs:           make(chan []*pendingItem, defaultWorkerCount*2),
		stopCh:         make(chan struct{}),
		workerCount:    defaultWorkerCount,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.start(idx.workerCount)
	return idx
}

func (idx *Indexer) start(workerCount int) {
	if idx.started {
		return
	}
	idx.started = true
	for i := 0; i < workerCount; i++ {
		go idx.runWorker()
	}
}

func (idx *Indexer) runWorker() {
	for {
		select {
		case batch, ok := <-idx.jobs:
			if !ok {
				return
			}
			idx.processBatch(batch)
		case <-idx.stopCh:
			return
		}
	}
}

// Index queues item for async embedding and upsert, blocking until its
// batch has been processed (or ctx is cancelled).
func (idx *Indexer) Index(ctx context.Context, item IndexItem) (IndexResult, error) {
	pi := &pendingItem{
		id:         uuid.NewString(),
		item:       item,
		enqueuedAt: time.Now(),
		resultCh:   make(chan IndexResult, 1),
	}

	idx.enqueue(pi)

	select {
	case res := <-pi.resultCh:
		return res, res.Err
	case <-ctx.Done():
		return IndexResult{ID: pi.id}, ctx.Err()
	}
}

func (idx *Indexer) enqueue(pi *pendingItem) {
	idx.wg.Add(1)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.paused {
		idx.buffer = append(idx.buffer, pi)
		return
	}

	idx.buffer = append(idx.buffer, pi)
	if len(idx.buffer) == 1 {
		idx.timer = time.AfterFunc(idx.flushInterval, idx.flushOnTimer)
	}
	if len(idx.buffer) >= idx.batchSize {
		idx.flushLocked()
	}
}

func (idx *Indexer) flushOnTimer() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.paused {
		return
	}
	idx.flushLocked()
}

// flushLocked must be called with mu held. It hands the current buffer
// to the worker pool and resets both the buffer and the pending timer.
func (idx *Indexer) flushLocked() {
	if len(idx.buffer) == 0 {
		return
	}
	if idx.timer != nil {
		idx.timer.Stop()
		idx.timer = nil
	}
	batch := idx.buffer
	idx.buffer = nil
	idx.jobs <- batch
}

// processBatch embeds the whole batch in one call, then per-item
// computes a content hash, optionally checks for a near-duplicate, and
// upserts. A batch-level embed failure marks every item in the batch
// failed — individual items never retry on their own.
func (idx *Indexer) processBatch(batch []*pendingItem) {
	defer func() {
		for range batch {
			idx.wg.Done()
		}
	}()

	ctx := context.Background()
	texts := make([]string, len(batch))
	for i, pi := range batch {
		texts[i] = pi.item.Content
	}

	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		for _, pi := range batch {
			idx.deliver(pi, IndexResult{ID: pi.id, Success: false, Err: err})
		}
		return
	}

	for i, pi := range batch {
		idx.processItem(ctx, pi, embeddings[i])
	}
}

func (idx *Indexer) processItem(ctx context.Context, pi *pendingItem, embedding []float64) {
	sum := sha256.Sum256([]byte(pi.item.Content))
	contentHash := hex.EncodeToString(sum[:])

	record := VectorRecord{
		ID:          pi.id,
		Embedding:   embedding,
		Content:     pi.item.Content,
		ContentHash: contentHash,
		Metadata:    pi.item.Metadata,
		IndexedAt:   time.Now(),
	}

	if idx.dedupEnabled {
		neighbours, err := idx.backend.Search(ctx, embedding, SearchOptions{Limit: 1, MinScore: idx.dedupThreshold})
		if err != nil {
			idx.deliver(pi, IndexResult{ID: pi.id, Success: false, Err: err})
			return
		}
		if len(neighbours) > 0 {
			idx.deliver(pi, IndexResult{
				ID:               pi.id,
				Success:          true,
				IsDuplicate:      true,
				DuplicateOf:      neighbours[0].Record.ID,
				ProcessingTimeMs: time.Since(pi.enqueuedAt).Milliseconds(),
			})
			return
		}
	}

	if err := idx.backend.Upsert(ctx, record); err != nil {
		idx.deliver(pi, IndexResult{ID: pi.id, Success: false, Err: err})
		return
	}

	idx.deliver(pi, IndexResult{
		ID:               pi.id,
		Success:          true,
		ProcessingTimeMs: time.Since(pi.enqueuedAt).Milliseconds(),
	})
}

func (idx *Indexer) deliver(pi *pendingItem, res IndexResult) {
	pi.resultCh <- res
}

// Drain blocks until every enqueued item (buffered or in-flight) has
// been processed.
func (idx *Indexer) Drain() {
	idx.wg.Wait()
}

// Pause stops the buffer from auto-flushing; items still accumulate.
func (idx *Indexer) Pause() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.paused = true
	if idx.timer != nil {
		idx.timer.Stop()
		idx.timer = nil
	}
}

// Resume re-enables auto-flushing and immediately flushes any backlog.
func (idx *Indexer) Resume() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.paused = false
	idx.flushLocked()
}

// Clear discards the current buffer without processing it — items
// already handed to a worker are unaffected.
func (idx *Indexer) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, pi := range idx.buffer {
		idx.deliver(pi, IndexResult{ID: pi.id, Success: false, Err: errCleared})
		idx.wg.Done()
	}
	idx.buffer = nil
	if idx.timer != nil {
		idx.timer.Stop()
		idx.timer = nil
	}
}

// Stop halts the worker pool. Exists for clean shutdown in tests and
// the orchestrator; callers that never shut down an Indexer can ignore it.
func (idx *Indexer) Stop() {
	close(idx.stopCh)
}
