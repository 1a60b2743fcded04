package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/whyumesh/FMV/internal/calculator"
	"github.com/whyumesh/FMV/internal/logger"
	"github.com/whyumesh/FMV/internal/matching"
	"github.com/whyumesh/FMV/internal/pipeline"
	"github.com/whyumesh/FMV/internal/rates"
	"github.com/whyumesh/FMV/internal/survey"
	"github.com/whyumesh/FMV/internal/table"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes           = "Yes"
	PromptNo            = "No"
	PromptReportByTier  = "Report by tier"
	PromptMatchedToFile = "Dump matched records to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Write the updated calculator?",
	Items: []string{PromptYes, PromptNo, PromptReportByTier, PromptMatchedToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full reconciliation: match, merge, score and rate",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before overwriting the calculator")
	runCmd.Flags().Bool("dry-run", false, "run the full pipeline but write nothing")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the fmv-reconciler", zap.String("version", version))

	paths := config.Paths()

	pretty, _ := json.MarshalIndent(paths, "", "  ")
	logger.Debug(fmt.Sprintf("resolved paths: \n %s", pretty))

	defaults, err := config.Rates.DefaultRates()
	if err != nil {
		logger.Fatal("decoding default rates", zap.Error(err))
	}

	state, err := loadState(paths, defaults)
	if err != nil {
		logger.Fatal("loading input files", zap.Error(err))
	}

	logger.Info("inputs loaded",
		zap.Int("roster_rows", state.Roster.Len()),
		zap.Int("survey_rows", state.Survey.Len()),
		zap.Int("calculator_rows", state.Calculator.Len()),
	)

	if err := pipeline.Run(ctx, logger, pipeline.Stages(logger), state); err != nil {
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	logger.Info("reconciliation complete",
		zap.Int("matched", len(state.Match.Matched)),
		zap.Int("missing", len(state.Match.Missing)),
		zap.Int("dropped_no_identity", state.Match.DroppedNoIdentity),
		zap.Int("appended", state.MergeStats.Appended),
		zap.Int("back_filled", state.MergeStats.BackFilled),
		zap.Int("calculator_rows", state.Calculator.Len()),
	)

	if cmd.Flag("dry-run").Value.String() == "true" {
		logger.Info("exiting", zap.String("reason", "dry run requested, nothing written"))
		return
	}

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(action, logger, paths, state); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, paths Paths, state *pipeline.State) error {
	switch action {
	case PromptYes:
		if err := save(logger, paths, state); err != nil {
			return err
		}
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt, nothing written"))
		return errExit
	case PromptReportByTier:
		pretty, _ := json.MarshalIndent(reportByTier(state.Calculator), "", "  ")
		logger.Info(string(pretty), zap.Int("calculator_rows", state.Calculator.Len()))
		return nil
	case PromptMatchedToFile:
		filename, err := state.Match.DumpMatchedToTmpFile()
		if err != nil {
			return fmt.Errorf("dump matched records to file: %w", err)
		}
		logger.Info("dumping matched records to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// loadState reads and validates every input. Any error here is fatal before
// a single byte is written.
func loadState(paths Paths, defaults map[string]int) (*pipeline.State, error) {
	calc, err := table.Load(paths.Calculator, nil)
	if err != nil {
		return nil, fmt.Errorf("calculator: %w", err)
	}

	cvdump, err := table.Load(paths.Survey, survey.Columns())
	if err != nil {
		return nil, fmt.Errorf("survey: %w", err)
	}

	roster, err := table.Load(paths.Roster, nil)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}

	rateSheet, err := table.LoadSheet(paths.Rates, paths.RatesSheet, 1)
	if err != nil {
		return nil, fmt.Errorf("rates: %w", err)
	}

	// The calculator may legitimately be headers-only; the other sources
	// must carry data.
	if err := calc.Validate("FMV Calculator", []string{matching.ColHCPEmail}, true); err != nil {
		return nil, err
	}
	if err := cvdump.Validate("CVdump", []string{survey.ColEmail, survey.ColStartTime}, false); err != nil {
		return nil, err
	}
	if err := roster.Validate("DVL", []string{matching.RosterEmailColumn, matching.RosterCodeColumn}, false); err != nil {
		return nil, err
	}
	if err := rateSheet.Validate("OUS FMV Rates", []string{rates.SpecialtyColumn}, false); err != nil {
		return nil, err
	}

	return &pipeline.State{
		Roster:     roster,
		Survey:     cvdump,
		Calculator: calc,
		Rates:      rates.New(rateSheet, defaults),
	}, nil
}

// save backs up and overwrites the calculator, then writes the missing
// report. The report is written even when empty so downstream consumers
// always find the file.
func save(logger *zap.Logger, paths Paths, state *pipeline.State) error {
	backup, err := table.Backup(paths.Calculator, time.Now())
	if err != nil {
		return fmt.Errorf("creating calculator backup: %w", err)
	}
	if backup != "" {
		logger.Info("backup created", zap.String("filename", backup))
	}

	if err := state.Calculator.Write(paths.Calculator); err != nil {
		return fmt.Errorf("writing calculator: %w", err)
	}
	logger.Info("calculator saved",
		zap.String("filename", paths.Calculator),
		zap.Int("rows", state.Calculator.Len()),
	)

	if err := state.Match.MissingTable().Write(paths.Missing); err != nil {
		return fmt.Errorf("writing missing report: %w", err)
	}
	logger.Info("missing report saved",
		zap.String("filename", paths.Missing),
		zap.Int("rows", len(state.Match.Missing)),
	)

	return nil
}

// reportByTier counts calculator rows per assigned tier.
func reportByTier(calc *table.Table) map[string]int {
	report := make(map[string]int)
	for _, row := range calc.Rows {
		tier := row[calculator.ColTier]
		if tier == "" {
			tier = "unscored"
		}
		report[tier]++
	}
	return report
}
