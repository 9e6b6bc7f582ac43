package ingest

import (
	"context"
	"sync"
	"time"

	"testviewer/internal/domain"
)

// Progress receives per-artifact completion counts
type Progress interface {
	Update(ingested, failed int)
	Finish()
}

// ProgressFactory creates a Progress for a known number of artifacts
type ProgressFactory func(total int) Progress

// Handler processes one artifact on a worker
type Handler func(ctx context.Context, workerID int, artifact domain.Artifact) error

// Outcome is the result of handling one artifact
type Outcome struct {
	Artifact domain.Artifact
	Err      error
}

// WorkerPool processes artifacts with a bounded number of workers
type WorkerPool struct {
	workers     int
	newProgress ProgressFactory
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(workers int) *WorkerPool {
	return &WorkerPool{workers: workers}
}

// SetProgress sets how the worker pool reports progress of each Run
func (wp *WorkerPool) SetProgress(factory ProgressFactory) {
	wp.newProgress = factory
}

// Run hands every artifact to handle and waits for all of them.
// Once ctx is cancelled no further artifacts are started.
func (wp *WorkerPool) Run(ctx context.Context, artifacts []domain.Artifact, handle Handler) ([]Outcome, time.Duration) {
	if len(artifacts) == 0 {
		return nil, 0
	}

	queue := make(chan domain.Artifact, 1)
	results := make(chan Outcome, len(artifacts))

	go func() {
		defer close(queue)
		for _, a := range artifacts {
			select {
			case <-ctx.Done():
				return
			case queue <- a:
			}
		}
	}()

	var progress Progress
	if wp.newProgress != nil {
		progress = wp.newProgress(len(artifacts))
	}

	var mu sync.Mutex
	var ingested, failed int
	startTime := time.Now()
	workerCount := wp.workers
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(artifacts) {
		workerCount = len(artifacts)
	}

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for a := range queue {
				err := handle(ctx, workerID, a)
				results <- Outcome{Artifact: a, Err: err}
				mu.Lock()
				if err != nil {
					failed++
				} else {
					ingested++
				}
				if progress != nil {
					progress.Update(ingested, failed)
				}
				mu.Unlock()
			}
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var outcomes []Outcome
	for o := range results {
		outcomes = append(outcomes, o)
	}
	if progress != nil {
		progress.Finish()
	}
	return outcomes, time.Since(startTime)
}
