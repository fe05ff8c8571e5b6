package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/edge-engine/internal/classifier"
	"github.com/yourusername/edge-engine/internal/confidence"
	"github.com/yourusername/edge-engine/internal/database"
	"github.com/yourusername/edge-engine/internal/metrics"
	"github.com/yourusername/edge-engine/internal/models"
	"github.com/yourusername/edge-engine/internal/repository"
	"github.com/yourusername/edge-engine/internal/simcache"
	"github.com/yourusername/edge-engine/internal/simcontext"
	"github.com/yourusername/edge-engine/internal/simulation"
)

var (
	simulateInputFile string
	simulateStore     bool
	stabilityProbes   int
)

func init() {
	simulateCmd.Flags().StringVarP(&simulateInputFile, "input", "i", "", "Path to simulation input JSON (required)")
	simulateCmd.Flags().BoolVar(&simulateStore, "store", false, "Persist simulation results to the database")
	simulateCmd.Flags().IntVar(&stabilityProbes, "stability-probes", 0, "Perturbation probes per valid play (0 disables the stability test)")
	simulateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(simulateCmd)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulations for a batch of contexts and classify the results",
	Long: `Reads a batch of simulation contexts with their model distribution
summaries, runs each through the seeded Monte Carlo executor with result
caching, then scores confidence and classifies exposure. Results are
written to stdout as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulate()
	},
}

// simulateEntry pairs a simulation context with the upstream model's win
// probability and distribution summary. The engine is model agnostic; trials
// here are Bernoulli draws at the supplied probability.
type simulateEntry struct {
	Context simcontext.Context `json:"context"`

	ModelProbability   float64           `json:"model_probability"`
	Variance           *float64          `json:"variance"`
	MedianValue        float64           `json:"median_value"`
	RerunSpreads       []float64         `json:"rerun_spreads,omitempty"`
	Volatility         models.Volatility `json:"volatility"`
	MarketAligned      *bool             `json:"market_aligned,omitempty"`
	InjuryImpactPoints float64           `json:"injury_impact_points"`
	PreviousState      string            `json:"previous_state,omitempty"`
}

type simulateInput struct {
	Entries []simulateEntry `json:"entries"`
}

// evaluation is one entry's combined output.
type evaluation struct {
	Result         *simulation.Result `json:"result"`
	Confidence     confidence.Result  `json:"confidence"`
	Classification string             `json:"classification"`
	Reasons        []string           `json:"classification_reasons,omitempty"`
	StabilityScore *float64           `json:"stability_score,omitempty"`
}

// bernoulliTrials draws binary outcomes at probability p from the seeded
// source, keeping runs reproducible per context.
func bernoulliTrials(p float64) simulation.TrialGenerator {
	return func(rng *rand.Rand, trials int) []float64 {
		outcomes := make([]float64, trials)
		for i := range outcomes {
			if rng.Float64() < p {
				outcomes[i] = 1
			}
		}
		return outcomes
	}
}

func runSimulate() error {
	data, err := os.ReadFile(simulateInputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var input simulateInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse input file: %w", err)
	}
	if len(input.Entries) == 0 {
		return fmt.Errorf("input file contains no entries")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var repos *repository.Repositories
	if simulateStore {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
	}

	simCfg := simulation.FromConfig(&cfg.Simulation)
	classCfg := classifier.FromConfig(&cfg.Classifier)
	cache := simcache.New(cfg.CacheTTL())

	evaluations := make([]evaluation, 0, len(input.Entries))
	for i, entry := range input.Entries {
		if entry.ModelProbability <= 0 || entry.ModelProbability >= 1 {
			return fmt.Errorf("entry %d: model_probability must be in (0,1), got %v", i, entry.ModelProbability)
		}

		simCtx := entry.Context
		key := simcache.Key{
			ContextHash: simCtx.Hash(),
			GameID:      simCtx.GameID,
			MarketType:  simCtx.Market.Type,
		}
		result, err := cache.GetOrCompute(ctx, key, func() (*simulation.Result, error) {
			return simulation.Run(simCtx, bernoulliTrials(entry.ModelProbability), simCfg)
		})
		if err != nil {
			return fmt.Errorf("entry %d: simulation failed: %w", i, err)
		}

		if repos != nil {
			if err := repos.Results.Upsert(ctx, result); err != nil {
				return fmt.Errorf("entry %d: failed to store result: %w", i, err)
			}
		}

		conf := confidence.Compute(confidence.Inputs{
			Variance:      entry.Variance,
			MedianValue:   entry.MedianValue,
			RerunSpreads:  entry.RerunSpreads,
			Volatility:    entry.Volatility,
			MarketAligned: entry.MarketAligned,
			Trials:        result.TrialsRun,
		})

		prev, err := classifier.ParseState(entry.PreviousState)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		outcome := classifier.Classify(classifier.Inputs{
			Confidence:         conf.Score,
			EdgePercent:        result.EdgePercent,
			Volatility:         entry.Volatility,
			Trials:             result.TrialsRun,
			ModelProbability:   result.ModelProbability,
			InjuryImpactPoints: entry.InjuryImpactPoints,
		}, prev, classCfg)
		if outcome.State != prev {
			metrics.RecordClassifierTransition(outcome.State.String())
		}

		ev := evaluation{
			Result:         result,
			Confidence:     conf,
			Classification: outcome.State.String(),
			Reasons:        outcome.Reasons,
		}
		if stabilityProbes > 0 && result.IsValidPlay {
			score, err := simulation.RunPerturbationTest(simCtx, bernoulliTrials(entry.ModelProbability), simCfg, stabilityProbes)
			if err != nil {
				return fmt.Errorf("entry %d: stability test failed: %w", i, err)
			}
			ev.StabilityScore = &score
		}
		evaluations = append(evaluations, ev)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return out.Encode(evaluations)
}
