// Package cpu implements the CPU execution space: chunks of an index range
// run on worker goroutines.
package cpu

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/parkit/internal/parallel"
)

// CPUBackend is an execution space backed by a bounded set of goroutines.
// It is safe for concurrent use.
type CPUBackend struct {
	cfg parallel.Config

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
}

// New creates a CPU backend configured from the environment.
func New() *CPUBackend {
	return NewWithConfig(parallel.LoadConfig())
}

// NewWithConfig creates a CPU backend with an explicit configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	cfg.NumWorkers = max(cfg.NumWorkers, 1)
	cfg.MinChunkSize = max(cfg.MinChunkSize, 1)

	cpu := &CPUBackend{cfg: cfg}
	cpu.idle = sync.NewCond(&cpu.mu)

	slog.Debug("cpu space created", "enabled", cfg.Enabled, "workers", cfg.NumWorkers, "min_chunk", cfg.MinChunkSize)
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Config returns the configuration the backend was created with.
func (cpu *CPUBackend) Config() parallel.Config {
	return cpu.cfg
}

// Split partitions [0, n) into at most NumWorkers ranges.
func (cpu *CPUBackend) Split(n int) []parallel.Range {
	return cpu.cfg.Split(n)
}

// Launch runs body for every range and waits for all of them.
// A single range runs on the calling goroutine. A panic in any worker is
// re-raised here as a *parallel.PanicError once the other workers stopped.
func (cpu *CPUBackend) Launch(ranges []parallel.Range, body func(chunk int, r parallel.Range)) {
	if len(ranges) == 0 {
		return
	}

	cpu.begin()
	defer cpu.end()

	if len(ranges) == 1 {
		body(0, ranges[0])
		return
	}

	var g errgroup.Group
	g.SetLimit(cpu.cfg.NumWorkers)
	for c, r := range ranges {
		g.Go(func() (err error) {
			defer func() {
				if v := recover(); v != nil {
					err = parallel.NewPanicError(v)
				}
			}()
			body(c, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
}

// Fence blocks until every Launch in progress on this backend has returned.
// It must not be called from inside a launched body.
func (cpu *CPUBackend) Fence() {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()
	for cpu.inflight > 0 {
		cpu.idle.Wait()
	}
}

func (cpu *CPUBackend) begin() {
	cpu.mu.Lock()
	cpu.inflight++
	cpu.mu.Unlock()
}

func (cpu *CPUBackend) end() {
	cpu.mu.Lock()
	cpu.inflight--
	if cpu.inflight == 0 {
		cpu.idle.Broadcast()
	}
	cpu.mu.Unlock()
}
