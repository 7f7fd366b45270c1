package notifications

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Drainer is the processing entry point the processor polls. Implemented
// by Scheduler.
type Drainer interface {
	ProcessPendingNotifications(ctx context.Context, limit int) (int, error)
}

// ProcessorConfig contains processor configuration.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultProcessorConfig returns the production defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval: time.Minute,
		BatchSize:    20,
	}
}

// ProcessorStatus is a snapshot of the processor's state.
type ProcessorStatus struct {
	Running    bool `json:"running"`
	Processing bool `json:"processing"`
}

// Processor is a single-flight polling loop that drains the queue in
// bounded batches. A tick that fires while a previous drain is still in
// flight is skipped entirely, bounding concurrency to one drain cycle
// per process.
type Processor struct {
	config  ProcessorConfig
	drainer Drainer

	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	wg         sync.WaitGroup
	processing atomic.Bool
}

// NewProcessor creates a background processor.
func NewProcessor(config ProcessorConfig, drainer Drainer) *Processor {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	return &Processor{
		config:  config,
		drainer: drainer,
	}
}

// Start launches the polling loop. The first drain runs immediately.
// Starting an already-running processor is a no-op.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		slog.Warn("notification processor already running")
		return
	}

	p.running = true
	p.stopCh = make(chan struct{})

	slog.Info("starting notification processor",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)

	p.wg.Add(1)
	go p.run(ctx, p.stopCh)
}

// Stop halts the polling loop and waits for an in-flight drain.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	slog.Info("notification processor stopped")
}

// Status returns the current processor state.
func (p *Processor) Status() ProcessorStatus {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	return ProcessorStatus{
		Running:    running,
		Processing: p.processing.Load(),
	}
}

func (p *Processor) run(ctx context.Context, stopCh chan struct{}) {
	defer p.wg.Done()

	p.tick(ctx)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one drain cycle unless a previous one is still in flight.
// Errors are logged and never stop future ticks.
func (p *Processor) tick(ctx context.Context) {
	if !p.processing.CompareAndSwap(false, true) {
		slog.Warn("previous drain still in flight, skipping tick")
		recordTickSkipped()
		return
	}
	defer p.processing.Store(false)

	processed, err := p.drainer.ProcessPendingNotifications(ctx, p.config.BatchSize)
	if err != nil {
		slog.Error("drain cycle failed", "error", err)
		return
	}

	if processed > 0 {
		slog.Info("drain cycle complete", "processed", processed)
	}
}
