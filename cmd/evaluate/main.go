// Package main provides the decision evaluation CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edge-engine/internal/config"
	"github.com/yourusername/edge-engine/internal/database"
	"github.com/yourusername/edge-engine/internal/decision"
	"github.com/yourusername/edge-engine/internal/killswitch"
	"github.com/yourusername/edge-engine/internal/logger"
	"github.com/yourusername/edge-engine/internal/metrics"
	"github.com/yourusername/edge-engine/internal/oddsfeed"
	"github.com/yourusername/edge-engine/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	inputFile  string
	versionNum int64
	store      bool
	liveOdds   bool
	appLogger  *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Path to cycle input JSON (required)")
	rootCmd.Flags().Int64Var(&versionNum, "version", 1, "Decision version counter for this cycle")
	rootCmd.Flags().BoolVar(&store, "store", false, "Persist decisions to the database")
	rootCmd.Flags().BoolVar(&liveOdds, "live-odds", false, "Fetch current odds from the feed instead of using the input file's")
	rootCmd.MarkFlagRequired("input")

	killSwitchCmd.AddCommand(killSwitchActivateCmd, killSwitchDeactivateCmd, killSwitchStatusCmd)
	rootCmd.AddCommand(killSwitchCmd)
}

var rootCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compute market decisions for a cycle of games",
	Long: `Reads a cycle input file of games with simulation outputs and live odds,
runs every market through the decision gates, and writes the resulting
decision records to stdout as JSON.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLogger = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()
	return nil
}

// cycleInput is the evaluate command's input file format.
type cycleInput struct {
	Games []decision.GameInput `json:"games"`
}

func runEvaluate() error {
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var input cycleInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse input file: %w", err)
	}
	if len(input.Games) == 0 {
		return fmt.Errorf("input file contains no games")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var repos *repository.Repositories
	var sw *killswitch.Switch
	if store {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
		sw = killswitch.New(repos.KillSwitch, cfg.KillSwitchTTL(), appLogger)
	}

	var feed *oddsfeed.Client
	if liveOdds {
		feed = oddsfeed.NewClient(&cfg.OddsFeed, appLogger)
		defer feed.Close()
	}

	computer := decision.NewComputer(decision.FromConfig(&cfg.Decision), appLogger)

	var decisions []decision.MarketDecision
	for _, game := range input.Games {
		// One cycle per game: the trace id keys persisted decisions, so
		// sharing it across games would collide on (trace_id, market_type).
		cycle := decision.NewCycle(versionNum)
		if feed != nil {
			live, err := feed.FetchGameOdds(ctx, game.GameID)
			if err != nil {
				return fmt.Errorf("failed to fetch odds for game %s: %w", game.GameID, err)
			}
			game.Live = *live
		}
		for _, d := range computer.ComputeCycle(cycle, game) {
			if sw != nil && !d.Blocked() && sw.IsActive(ctx, d.MarketType) {
				appLogger.WithFields(logrus.Fields{
					"game_id":     d.GameID,
					"market_type": d.MarketType,
				}).Warn("Kill switch engaged, decision withheld from storage")
				continue
			}
			decisions = append(decisions, d)
			if repos != nil {
				if err := repos.Decisions.Save(ctx, &d); err != nil {
					return fmt.Errorf("failed to store decision: %w", err)
				}
			}
		}
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return out.Encode(decisions)
}

var killSwitchCmd = &cobra.Command{
	Use:   "killswitch",
	Short: "Inspect or change the decision release kill switch",
}

var (
	switchScope  string
	switchReason string
	switchActor  string
)

func init() {
	killSwitchActivateCmd.Flags().StringVar(&switchScope, "scope", killswitch.GlobalScope, "Scope: global or a market type")
	killSwitchActivateCmd.Flags().StringVar(&switchReason, "reason", "", "Why the switch is being engaged (required)")
	killSwitchActivateCmd.Flags().StringVar(&switchActor, "actor", "", "Who is engaging the switch (required)")
	killSwitchActivateCmd.MarkFlagRequired("reason")
	killSwitchActivateCmd.MarkFlagRequired("actor")

	killSwitchDeactivateCmd.Flags().StringVar(&switchScope, "scope", killswitch.GlobalScope, "Scope: global or a market type")
	killSwitchDeactivateCmd.Flags().StringVar(&switchActor, "actor", "", "Who is releasing the switch (required)")
	killSwitchDeactivateCmd.MarkFlagRequired("actor")
}

func withSwitch(fn func(ctx context.Context, sw *killswitch.Switch) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	return fn(ctx, killswitch.New(repos.KillSwitch, cfg.KillSwitchTTL(), appLogger))
}

var killSwitchActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Engage the kill switch for a scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSwitch(func(ctx context.Context, sw *killswitch.Switch) error {
			if err := sw.Activate(ctx, switchScope, switchReason, switchActor); err != nil {
				return err
			}
			fmt.Printf("Kill switch engaged for scope %q\n", switchScope)
			return nil
		})
	},
}

var killSwitchDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Release the kill switch for a scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSwitch(func(ctx context.Context, sw *killswitch.Switch) error {
			if err := sw.Deactivate(ctx, switchScope, switchActor); err != nil {
				return err
			}
			fmt.Printf("Kill switch released for scope %q\n", switchScope)
			return nil
		})
	},
}

var killSwitchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show kill switch state for every scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}

		states, err := repos.KillSwitch.GetStates(ctx)
		if err != nil {
			return err
		}
		if len(states) == 0 {
			fmt.Println("No kill switch records; all scopes clear")
			return nil
		}

		for scope, st := range states {
			state := "clear"
			if st.Active {
				state = "ENGAGED"
			}
			fmt.Printf("%-12s %-8s %s (%s, %s)\n", scope, state, st.Reason, st.ActivatedBy, st.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	},
}
