// Package pipeline runs the reconciliation stages in order with per-step
// accounting.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/whyumesh/FMV/internal/calculator"
	"github.com/whyumesh/FMV/internal/matching"
	"github.com/whyumesh/FMV/internal/rates"
	"github.com/whyumesh/FMV/internal/survey"
	"github.com/whyumesh/FMV/internal/table"
)

// State carries the tables and intermediate results between stages. Stages
// mutate it in place; nothing touches disk until every stage has succeeded.
type State struct {
	Roster     *table.Table
	Survey     *table.Table
	Calculator *table.Table
	Rates      *rates.Table

	SurveyStats survey.Stats
	Match       matching.Result
	MergeStats  calculator.Stats
}

// StepInfo describes the result of executing one stage.
type StepInfo struct {
	Initial int
	Dropped int
	Left    int
}

// Stage is a single pipeline step applied to the shared state.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *State) (StepInfo, error)
}

// Run executes the stages sequentially, logging the before/after accounting
// for each. The first error aborts the run.
func Run(ctx context.Context, logger *zap.Logger, stages []Stage, state *State) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := stage.Run(ctx, state)
		if err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		if logger != nil {
			logger.Info("pipeline step",
				zap.String("name", stage.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}
	}
	return nil
}

// Stages returns the canonical stage order for a full reconciliation run.
func Stages(logger *zap.Logger) []Stage {
	return []Stage{
		&DedupeStage{Logger: logger},
		&MatchStage{},
		&MergeStage{Logger: logger},
		&ScoreStage{Logger: logger},
		&RateStage{Logger: logger},
	}
}
