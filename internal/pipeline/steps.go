// Package pipeline imports ledger snapshots into a store in a fixed
// sequence of steps: fetch, decode, validate, normalize and write.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dvloznov/finance-insights/internal/gcsuploader"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/store"
)

// PipelineStep represents a single step in the import pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	// Source is a local path or a gs:// URI.
	Source   string
	Raw      []byte
	Snapshot store.Snapshot
	Rejected []Rejection
	Written  Counts
}

// Counts is the number of records per collection.
type Counts struct {
	Transactions  int `json:"transactions"`
	Budgets       int `json:"budgets"`
	Goals         int `json:"goals"`
	Contributions int `json:"contributions"`
	Subscriptions int `json:"subscriptions"`
}

func countsOf(snap store.Snapshot) Counts {
	return Counts{
		Transactions:  len(snap.Transactions),
		Budgets:       len(snap.Budgets),
		Goals:         len(snap.Goals),
		Contributions: len(snap.Contributions),
		Subscriptions: len(snap.Subscriptions),
	}
}

// Step 1: FetchSnapshotStep reads the snapshot bytes from disk or GCS.
type FetchSnapshotStep struct {
	Storage gcsuploader.StorageService
}

func (s *FetchSnapshotStep) Execute(ctx context.Context, state *PipelineState) error {
	if gcsuploader.IsURI(state.Source) {
		data, err := s.Storage.Fetch(ctx, state.Source)
		if err != nil {
			return err
		}
		state.Raw = data
		return nil
	}

	data, err := os.ReadFile(state.Source)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	state.Raw = data
	return nil
}

// Step 2: DecodeSnapshotStep parses the JSON snapshot.
type DecodeSnapshotStep struct{}

func (s *DecodeSnapshotStep) Execute(ctx context.Context, state *PipelineState) error {
	var snap store.Snapshot
	if err := json.Unmarshal(state.Raw, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	state.Snapshot = snap
	return nil
}

// Step 3: NormalizeStep fills defaults and canonicalizes categories.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Snapshot = normalize(state.Snapshot)
	return nil
}

// Step 4: ValidateStep drops records that would corrupt aggregation or rule
// evaluation. With Strict set, any rejection fails the import.
type ValidateStep struct {
	Strict bool
}

func (s *ValidateStep) Execute(ctx context.Context, state *PipelineState) error {
	snap, rejected := validate(state.Snapshot)
	state.Snapshot = snap
	state.Rejected = append(state.Rejected, rejected...)

	log := logger.FromContext(ctx)
	for _, r := range rejected {
		log.Warn().Str("kind", r.Kind).Int("index", r.Index).Str("id", r.ID).Str("reason", r.Reason).Msg("Rejected snapshot record")
	}

	if s.Strict && len(rejected) > 0 {
		return fmt.Errorf("validate: %d invalid records", len(rejected))
	}
	return nil
}

// Step 5: WriteStep inserts the remaining records.
type WriteStep struct {
	Writer store.Writer
}

func (s *WriteStep) Execute(ctx context.Context, state *PipelineState) error {
	snap := state.Snapshot
	if err := s.Writer.InsertTransactions(ctx, snap.Transactions); err != nil {
		return fmt.Errorf("write transactions: %w", err)
	}
	if err := s.Writer.InsertBudgets(ctx, snap.Budgets); err != nil {
		return fmt.Errorf("write budgets: %w", err)
	}
	if err := s.Writer.InsertGoals(ctx, snap.Goals); err != nil {
		return fmt.Errorf("write goals: %w", err)
	}
	if err := s.Writer.InsertContributions(ctx, snap.Contributions); err != nil {
		return fmt.Errorf("write contributions: %w", err)
	}
	if err := s.Writer.InsertSubscriptions(ctx, snap.Subscriptions); err != nil {
		return fmt.Errorf("write subscriptions: %w", err)
	}
	state.Written = countsOf(snap)
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewSnapshotImportPipeline creates the standard five-step import pipeline.
func NewSnapshotImportPipeline(storage gcsuploader.StorageService, w store.Writer, strict bool) *Pipeline {
	return NewPipeline(
		&FetchSnapshotStep{Storage: storage},
		&DecodeSnapshotStep{},
		&NormalizeStep{},
		&ValidateStep{Strict: strict},
		&WriteStep{Writer: w},
	)
}

// ImportSnapshot runs the import pipeline for source and returns its final
// state.
func ImportSnapshot(ctx context.Context, source string, storage gcsuploader.StorageService, w store.Writer, strict bool) (*PipelineState, error) {
	log := logger.FromContext(ctx)
	state := &PipelineState{Source: source}

	log.Info().Str("source", source).Bool("strict", strict).Msg("Starting snapshot import")

	if err := NewSnapshotImportPipeline(storage, w, strict).Execute(ctx, state); err != nil {
		return state, fmt.Errorf("ImportSnapshot: %w", err)
	}

	log.Info().
		Int("transactions", state.Written.Transactions).
		Int("budgets", state.Written.Budgets).
		Int("goals", state.Written.Goals).
		Int("contributions", state.Written.Contributions).
		Int("subscriptions", state.Written.Subscriptions).
		Int("rejected", len(state.Rejected)).
		Msg("Snapshot import completed")

	return state, nil
}
