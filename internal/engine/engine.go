// Package engine drives the per-execution state machine:
//
//	Planning -> CodeGeneration -> Executing -> (AutoFixing)* -> Summarizing -> Completed | Failed
//
// Cancellation is cooperative and absorbing from any of the first four
// states: the engine checks the registry's liveness flag immediately before
// each transition, and a cancelled execution closes its stream without a
// terminal event. Each execution runs as its own goroutine; the registry
// and the event bus are the only cross-execution shared state.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datenai/datalab/internal/dataset"
	"github.com/datenai/datalab/internal/domain"
	"github.com/datenai/datalab/internal/observability"
	"github.com/datenai/datalab/internal/oracle"
	"github.com/datenai/datalab/internal/registry"
	"github.com/datenai/datalab/internal/runner"
	"github.com/datenai/datalab/internal/stream"
)

// ErrDatasetNotFound is returned by Start when the dataset reference does
// not resolve. The run is aborted before Planning begins: nothing is
// registered and no stream is opened.
var ErrDatasetNotFound = errors.New("dataset not found")

// defaultMaxFixAttempts bounds the auto-fix loop
const defaultMaxFixAttempts = 2

// ScriptRunner executes generated code against a dataset snapshot
type ScriptRunner interface {
	Run(ctx context.Context, code string, frame *dataset.Frame) *runner.Result
}

// DatasetProvider supplies private dataset snapshots by ID
type DatasetProvider interface {
	Get(id string) (*dataset.Frame, bool)
}

// ResultStore persists terminal execution results
type ResultStore interface {
	Put(result *domain.ExecutionResult) error
}

// Options wires the engine's collaborators. Registry, Bus, Oracle, Runner,
// Datasets and Results are required; Metrics may be nil.
type Options struct {
	Registry       *registry.Registry
	Bus            *stream.Bus
	Oracle         oracle.Oracle
	Runner         ScriptRunner
	Datasets       DatasetProvider
	Results        ResultStore
	Metrics        *observability.Metrics
	Logger         *slog.Logger
	MaxFixAttempts int
}

// Engine orchestrates concurrent task executions
type Engine struct {
	registry       *registry.Registry
	bus            *stream.Bus
	oracle         oracle.Oracle
	runner         ScriptRunner
	datasets       DatasetProvider
	results        ResultStore
	metrics        *observability.Metrics
	log            *slog.Logger
	maxFixAttempts int

	wg sync.WaitGroup
}

// New creates an Engine from its collaborators
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxFixAttempts <= 0 {
		opts.MaxFixAttempts = defaultMaxFixAttempts
	}
	return &Engine{
		registry:       opts.Registry,
		bus:            opts.Bus,
		oracle:         opts.Oracle,
		runner:         opts.Runner,
		datasets:       opts.Datasets,
		results:        opts.Results,
		metrics:        opts.Metrics,
		log:            opts.Logger,
		maxFixAttempts: opts.MaxFixAttempts,
	}
}

// StartRequest describes one run request
type StartRequest struct {
	DatasetID string
	Task      domain.TaskDescriptor
}

// Start begins a new execution and returns its ID. The dataset snapshot is
// resolved up front so a bad reference aborts before anything is registered
// or streamed. The pipeline itself runs asynchronously.
func (e *Engine) Start(req StartRequest) (string, error) {
	frame, ok := e.datasets.Get(req.DatasetID)
	if !ok {
		return "", ErrDatasetNotFound
	}
	schema := frame.Schema()

	executionID := uuid.NewString()
	if err := e.bus.Open(executionID); err != nil {
		return "", err
	}
	if err := e.registry.Register(executionID, req.DatasetID, req.Task.ID); err != nil {
		e.bus.Close(executionID)
		return "", err
	}

	e.count(func(m *observability.Metrics) { m.ExecutionsStarted.Add(context.Background(), 1) })
	e.log.Info("execution started",
		"execution_id", executionID,
		"file_id", req.DatasetID,
		"task_id", req.Task.ID,
		"active", e.registry.Count())

	e.wg.Add(1)
	go e.run(executionID, req, frame, schema)
	return executionID, nil
}

// Cancel requests cooperative cancellation. It flips the registry's
// liveness flag and closes the stream; in-flight work finishes its current
// step and then stops without a terminal event. Returns false when the
// execution is unknown or already finished.
func (e *Engine) Cancel(executionID string) bool {
	meta, ok := e.registry.Get(executionID)
	if !ok {
		return false
	}
	e.registry.Remove(executionID)
	e.bus.Close(executionID)
	e.count(func(m *observability.Metrics) { m.ExecutionsCancelled.Add(context.Background(), 1) })
	e.log.Info("execution cancelled",
		"execution_id", executionID,
		"file_id", meta.DatasetID,
		"task_id", meta.TaskID,
		"ran_for", time.Since(meta.StartedAt))
	return true
}

// ActiveCount returns the number of live executions
func (e *Engine) ActiveCount() int {
	return e.registry.Count()
}

// Wait blocks until all in-flight executions have finished
func (e *Engine) Wait() {
	e.wg.Wait()
}

// run advances one execution through the state machine
func (e *Engine) run(executionID string, req StartRequest, frame *dataset.Frame, schema domain.DatasetSchema) {
	defer e.wg.Done()
	defer e.registry.Remove(executionID)

	ctx := context.Background()
	log := e.log.With("execution_id", executionID, "task_id", req.Task.ID)

	// Planning
	if e.aborted(executionID, log, "planning") {
		return
	}
	e.publish(executionID, domain.EventPlanning, map[string]any{
		"message": "Generating execution plan...",
	})

	gen, err := e.oracle.GeneratePlan(ctx, req.Task, schema)
	if err != nil {
		e.fail(executionID, req, schema, fmt.Sprintf("plan generation failed: %v", err), 0, log)
		return
	}

	// CodeGeneration
	if e.aborted(executionID, log, "code_generation") {
		return
	}
	e.publish(executionID, domain.EventCodeGeneration, map[string]any{
		"message":     "Code generated successfully",
		"plan":        gen.Plan,
		"assumptions": gen.Assumptions,
		"code":        gen.Code,
	})

	// Executing
	if e.aborted(executionID, log, "execution") {
		return
	}
	e.publish(executionID, domain.EventExecution, map[string]any{
		"message": "Executing analysis...",
	})

	code := gen.Code
	res := e.runner.Run(ctx, code, frame)
	log.Info("script executed", "faulted", res.Faulted(), "elapsed", res.Elapsed)

	// AutoFixing, bounded
	for attempt := 1; res.Faulted() && attempt <= e.maxFixAttempts; attempt++ {
		if e.aborted(executionID, log, "auto_fix") {
			return
		}
		e.count(func(m *observability.Metrics) { m.FixAttempts.Add(ctx, 1) })
		e.publish(executionID, domain.EventExecution, map[string]any{
			"message": fmt.Sprintf("Error detected. Auto-fixing with AI (attempt %d)...", attempt),
			"attempt": attempt,
		})

		fixed, err := e.oracle.Repair(ctx, code, res.Fault, schema)
		if err != nil {
			// A failing repair call ends the loop; the last execution
			// result stands.
			log.Warn("auto-fix attempt failed", "attempt", attempt, "error", err)
			break
		}
		code = fixed
		res = e.runner.Run(ctx, code, frame)
		log.Info("script re-executed", "attempt", attempt, "faulted", res.Faulted())
	}

	if res.Faulted() {
		e.fail(executionID, req, schema, res.Fault, res.Elapsed.Seconds(), log)
		return
	}

	// Summarizing: best effort, keep the draft summary on oracle failure
	if e.aborted(executionID, log, "summary") {
		return
	}
	summary := gen.Summary
	if s, err := e.oracle.Summarize(ctx, res.Artifacts, req.Task); err != nil {
		log.Warn("summary generation failed, keeping draft", "error", err)
	} else if s != "" {
		summary = s
	}
	e.publish(executionID, domain.EventSummary, map[string]any{
		"summary":         summary,
		"artifacts_count": len(res.Artifacts),
	})

	// Completed
	result := &domain.ExecutionResult{
		ExecutionID:   executionID,
		Status:        domain.StatusCompleted,
		Plan:          gen.Plan,
		Assumptions:   gen.Assumptions,
		Code:          code,
		Artifacts:     res.Artifacts,
		Summary:       summary,
		Followups:     gen.Followups,
		ElapsedSecs:   res.Elapsed.Seconds(),
		DatasetID:     req.DatasetID,
		DatasetSchema: &schema,
	}
	if err := e.results.Put(result); err != nil {
		log.Error("persisting result", "error", err)
	}
	e.publish(executionID, domain.EventComplete, resultPayload(result))
	e.bus.Close(executionID)
	e.count(func(m *observability.Metrics) { m.ExecutionsCompleted.Add(ctx, 1) })
	log.Info("execution completed", "artifacts", len(res.Artifacts))
}

// fail records a failure result, publishes the terminal error event and
// closes the stream
func (e *Engine) fail(executionID string, req StartRequest, schema domain.DatasetSchema, errMsg string, elapsedSecs float64, log *slog.Logger) {
	result := &domain.ExecutionResult{
		ExecutionID:   executionID,
		Status:        domain.StatusFailed,
		Error:         errMsg,
		ElapsedSecs:   elapsedSecs,
		DatasetID:     req.DatasetID,
		DatasetSchema: &schema,
	}
	if err := e.results.Put(result); err != nil {
		log.Error("persisting failure result", "error", err)
	}
	e.publish(executionID, domain.EventError, map[string]any{
		"message": "Execution failed",
		"error":   errMsg,
	})
	e.bus.Close(executionID)
	e.count(func(m *observability.Metrics) { m.ExecutionsFailed.Add(context.Background(), 1) })
	log.Warn("execution failed", "error", errMsg)
}

// aborted checks the liveness flag at a transition boundary. A cancelled
// execution closes its stream silently: no complete, no error.
func (e *Engine) aborted(executionID string, log *slog.Logger, state string) bool {
	if e.registry.IsLive(executionID) {
		return false
	}
	e.bus.Close(executionID)
	log.Info("execution stopped by cancellation", "state", state)
	return true
}

func (e *Engine) publish(executionID string, kind domain.EventKind, data map[string]any) {
	if err := e.bus.Publish(executionID, kind, data); err != nil {
		e.log.Warn("publishing event", "execution_id", executionID, "event", string(kind), "error", err)
	}
}

func (e *Engine) count(f func(*observability.Metrics)) {
	if e.metrics != nil {
		f(e.metrics)
	}
}

// resultPayload flattens a result into the complete event's data map
func resultPayload(result *domain.ExecutionResult) map[string]any {
	raw, err := json.Marshal(result)
	if err != nil {
		return map[string]any{"task_execution_id": result.ExecutionID, "status": string(result.Status)}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string]any{"task_execution_id": result.ExecutionID, "status": string(result.Status)}
	}
	return data
}
