package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/easelab/easel/pkg/domain"
	"github.com/easelab/easel/pkg/ports"
)

// defaultParallelism bounds concurrent dispatch within one phase.
const defaultParallelism = 4

// ExecutorConfig holds the knobs for NewExecutor.
type ExecutorConfig struct {
	Logger      *slog.Logger
	Parallelism int
	// OpObserver, when set, is called once per executed operation with
	// the outcome. Called from worker goroutines; must be safe for
	// concurrent use.
	OpObserver func(kind domain.OpKind, err error)
}

// Executor applies a sync plan against the remote gateway, phase by
// phase. Each phase runs to completion before the next starts;
// operations inside a phase are dispatched concurrently up to the
// configured parallelism. A failed operation is recorded and skipped
// over, never fatal to the rest of the plan.
type Executor struct {
	gateway     ports.GraphGateway
	log         *slog.Logger
	parallelism int
	observe     func(kind domain.OpKind, err error)
}

// NewExecutor builds an Executor over the given gateway.
func NewExecutor(gateway ports.GraphGateway, cfg ExecutorConfig) *Executor {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Executor{
		gateway:     gateway,
		log:         log,
		parallelism: parallelism,
		observe:     cfg.OpObserver,
	}
}

// Execute runs the plan and returns a report of what happened. It
// always runs every operation; the report's Errors slice carries
// whatever failed along the way.
func (e *Executor) Execute(ctx context.Context, plan *domain.Plan) *Report {
	started := time.Now()
	report := &Report{GraphID: plan.GraphID, Planned: plan.Size()}

	for _, phase := range plan.Phases() {
		if len(phase) == 0 {
			continue
		}
		e.runPhase(ctx, plan.GraphID, phase, report)
	}

	report.Duration = time.Since(started)
	e.log.DebugContext(ctx, "sync plan executed",
		"graph_id", plan.GraphID,
		"planned", report.Planned,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report
}

// runPhase dispatches one phase's operations concurrently and waits
// for all of them before returning, preserving the barrier between
// phases.
func (e *Executor) runPhase(ctx context.Context, graphID string, ops []domain.Operation, report *Report) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, e.parallelism)
	)

	for _, op := range ops {
		wg.Add(1)
		sem <- struct{}{}
		go func(op domain.Operation) {
			defer wg.Done()
			defer func() { <-sem }()

			err := e.apply(ctx, graphID, op)
			if e.observe != nil {
				e.observe(op.Kind, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, fmt.Errorf("%s %s: %w", op.Kind, op.EntityID(), err))
				return
			}
			report.Succeeded++
		}(op)
	}
	wg.Wait()
}

// apply dispatches a single operation. A "not found" on either delete
// kind counts as success: the entity is already gone, which is the
// state the plan wanted.
func (e *Executor) apply(ctx context.Context, graphID string, op domain.Operation) error {
	switch op.Kind {
	case domain.OpDeleteEdge:
		err := e.gateway.DeleteEdge(ctx, op.Edge.ID)
		if domain.IsRemoteNotFound(err) {
			e.log.DebugContext(ctx, "edge already deleted remotely", "edge_id", op.Edge.ID)
			return nil
		}
		return err
	case domain.OpDeleteNode:
		err := e.gateway.DeleteNode(ctx, op.Node.ID)
		if domain.IsRemoteNotFound(err) {
			e.log.DebugContext(ctx, "node already deleted remotely", "node_id", op.Node.ID)
			return nil
		}
		return err
	case domain.OpCreateNode:
		return e.gateway.CreateNode(ctx, graphID, *op.Node)
	case domain.OpUpdateNode:
		return e.gateway.UpdateNode(ctx, *op.Node)
	case domain.OpCreateEdge:
		return e.gateway.CreateEdge(ctx, graphID, *op.Edge)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
