package pipeline

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/whyumesh/FMV/internal/calculator"
	"github.com/whyumesh/FMV/internal/matching"
	"github.com/whyumesh/FMV/internal/scoring"
	"github.com/whyumesh/FMV/internal/survey"
)

// DedupeStage collapses the survey to one row per provider, keeping the
// latest submission.
type DedupeStage struct {
	Logger *zap.Logger
}

func (s *DedupeStage) Name() string { return "dedupe_survey" }

func (s *DedupeStage) Run(_ context.Context, state *State) (StepInfo, error) {
	if state.Survey == nil {
		return StepInfo{}, errors.New("survey table is required")
	}

	deduped, stats := survey.Dedupe(state.Survey, s.Logger)
	state.Survey = deduped
	state.SurveyStats = stats

	return StepInfo{
		Initial: stats.Initial,
		Dropped: stats.Initial - stats.Left,
		Left:    stats.Left,
	}, nil
}

// MatchStage joins the roster against the deduplicated survey. Dropped here
// means roster rows with no usable identity; misses remain part of the
// result and are reported separately.
type MatchStage struct{}

func (s *MatchStage) Name() string { return "match_roster" }

func (s *MatchStage) Run(_ context.Context, state *State) (StepInfo, error) {
	if state.Roster == nil {
		return StepInfo{}, errors.New("roster table is required")
	}

	state.Match = matching.Match(state.Roster, state.Survey)

	return StepInfo{
		Initial: state.Roster.Len(),
		Dropped: state.Match.DroppedNoIdentity,
		Left:    len(state.Match.Matched),
	}, nil
}

// MergeStage folds matched records into the calculator table.
type MergeStage struct {
	Logger *zap.Logger
}

func (s *MergeStage) Name() string { return "merge_calculator" }

func (s *MergeStage) Run(_ context.Context, state *State) (StepInfo, error) {
	if state.Calculator == nil {
		return StepInfo{}, errors.New("calculator table is required")
	}

	initial := state.Calculator.Len()
	if added := calculator.EnsureComputedColumns(state.Calculator); len(added) > 0 && s.Logger != nil {
		s.Logger.Info("added computed columns to calculator", zap.Strings("columns", added))
	}
	state.MergeStats = calculator.Merge(state.Calculator, state.Match.Matched, s.Logger)

	return StepInfo{
		Initial: initial,
		Dropped: 0,
		Left:    state.Calculator.Len(),
	}, nil
}

// ScoreStage writes Score 1..9, the total, range and tier on every
// calculator row.
type ScoreStage struct {
	Logger *zap.Logger
}

func (s *ScoreStage) Name() string { return "score_rows" }

func (s *ScoreStage) Run(_ context.Context, state *State) (StepInfo, error) {
	scoring.Apply(state.Calculator, scoring.Criteria(), s.Logger)
	n := state.Calculator.Len()
	return StepInfo{Initial: n, Left: n}, nil
}

// RateStage resolves the honorarium for every calculator row from its
// specialty and tier.
type RateStage struct {
	Logger *zap.Logger
}

func (s *RateStage) Name() string { return "resolve_rates" }

func (s *RateStage) Run(_ context.Context, state *State) (StepInfo, error) {
	if state.Rates == nil {
		return StepInfo{}, errors.New("rates table is required")
	}

	for _, row := range state.Calculator.Rows {
		specialty := strings.TrimSpace(row[matching.ColSpecialty])
		tier := row[calculator.ColTier]

		rate := state.Rates.Resolve(specialty, tier, s.Logger)
		row[calculator.ColRate] = strconv.Itoa(rate)
	}

	n := state.Calculator.Len()
	return StepInfo{Initial: n, Left: n}, nil
}
