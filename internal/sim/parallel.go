package sim

import (
	"context"
	"sync"
)

// Batch runs independent simulations concurrently, one goroutine each.
type Batch struct {
	cfg      Config
	builders []Builder
	metrics  func() []Metric
}

// NewBatch prepares one run per builder. metrics, if non-nil, supplies a
// fresh metric set for every run.
func NewBatch(cfg Config, builders []Builder, metrics func() []Metric) *Batch {
	return &Batch{cfg: cfg, builders: builders, metrics: metrics}
}

// Run returns results in builder order. Collisions do not fail a run; any
// other error fails the batch.
func (b *Batch) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(b.builders))
	errs := make([]error, len(b.builders))

	var wg sync.WaitGroup
	for i, build := range b.builders {
		wg.Add(1)
		go func(idx int, build Builder) {
			defer wg.Done()

			s, err := New(b.cfg, build)
			if err != nil {
				errs[idx] = err
				return
			}
			if b.metrics != nil {
				for _, m := range b.metrics() {
					s.AddMetric(m)
				}
			}
			results[idx], errs[idx] = s.Run(ctx)
		}(i, build)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil && !isCollision(err) {
			return nil, err
		}
	}

	return results, nil
}
