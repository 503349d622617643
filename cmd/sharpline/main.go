package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/sharpline/internal/analytics"
	"github.com/yourusername/sharpline/internal/budget"
	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/datasource"
	"github.com/yourusername/sharpline/internal/engine"
	applogger "github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/model"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/ops"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/scheduler"
	"github.com/yourusername/sharpline/internal/service"
	"github.com/yourusername/sharpline/internal/snapshot"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	runOnce    bool

	settleRecommendationID string
	settleResult           string
	settleStake            float64
	settleEventStart       string

	reportDays int
	reportJSON bool

	logger      *logrus.Logger
	cfg         *config.Config
	db          *database.DB
	repos       *repository.Repositories
	budgetStore budget.Store
	snapStore   snapshot.Store
	runner      *service.RunnerService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single batch and exit")
	settleCmd.Flags().StringVar(&settleRecommendationID, "recommendation", "", "Recommendation ID to settle")
	settleCmd.Flags().StringVar(&settleResult, "result", "", "Bet result (win, loss, push)")
	settleCmd.Flags().Float64Var(&settleStake, "stake", 1.0, "Stake in units")
	settleCmd.Flags().StringVar(&settleEventStart, "event-start", "", "Event start time (RFC3339)")
	settleCmd.MarkFlagRequired("recommendation")
	settleCmd.MarkFlagRequired("result")
	settleCmd.MarkFlagRequired("event-start")
	reportCmd.Flags().IntVar(&reportDays, "days", 30, "Settlement window in days")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Emit the report as JSON")
}

var rootCmd = &cobra.Command{
	Use:   "sharpline",
	Short: "Odds value-decision engine",
	Long:  `Evaluates market odds against probability estimates and emits sized bet recommendations.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return setupDependencies(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluation loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd.Context())
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Settle a recommendation and compute its closing line value",
	RunE: func(cmd *cobra.Command, args []string) error {
		return settleRecommendation(cmd.Context())
	},
}

var budgetCmd = &cobra.Command{
	Use:   "budget [source]",
	Short: "Show remaining fetch budget for a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showBudget(cmd.Context(), args[0])
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize settled-bet performance and closing line value",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showReport(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check upstream source and model service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkHealth(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(runCmd, settleCmd, budgetCmd, reportCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setupDependencies(ctx context.Context) error {
	logger = applogger.NewLogger(cfg.App.LogLevel)

	var err error
	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db, cfg.Sources.DailyLimitPerSource)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Budget counters live in Redis when configured; the database-backed
	// counter serves single-node deployments.
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		budgetStore = budget.NewRedisStore(client, cfg.Sources.DailyLimitPerSource, logger)
	} else {
		budgetStore = repos.Budget
	}

	snapStore = repos.Snapshot

	factory := datasource.NewFactory(budgetStore, logger)
	sources, err := factory.NewSources(cfg.Sources)
	if err != nil {
		return fmt.Errorf("failed to create quote sources: %w", err)
	}

	modelClient := model.NewCachedClient(&cfg.Model, logger)
	eng := engine.New(&cfg.Engine, snapStore, logger)
	runner = service.NewRunnerService(sources, modelClient, eng, repos.Recommendation, logger)

	logger.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
		"sources": len(sources),
	}).Info("Dependencies initialized")

	return nil
}

func runEngine(ctx context.Context) error {
	if runOnce {
		report, err := runner.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Println(report.String())
		return nil
	}

	opsServer := ops.NewServer(&cfg.Ops, cfg.App.Name, db, budgetStore, logger)
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Ops.Enabled {
		if err := opsServer.Start(serverCtx); err != nil {
			return fmt.Errorf("failed to start ops server: %w", err)
		}
	}

	sched := scheduler.NewScheduler(runner, logger)
	timeout := time.Duration(cfg.Batch.TimeoutSeconds) * time.Second
	if err := sched.ScheduleBatch(cfg.Batch.Schedule, timeout); err != nil {
		return fmt.Errorf("failed to schedule batches: %w", err)
	}
	if err := sched.Start(); err != nil {
		return err
	}
	opsServer.SetReady(true)

	logger.WithField("next_run", sched.NextRun()).Info("Engine running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")
	opsServer.SetReady(false)
	if err := sched.Stop(); err != nil {
		logger.WithError(err).Warn("Scheduler stop failed")
	}
	cancel()

	return nil
}

func settleRecommendation(ctx context.Context) error {
	recID, err := uuid.Parse(settleRecommendationID)
	if err != nil {
		return fmt.Errorf("invalid recommendation id: %w", err)
	}

	eventStart, err := time.Parse(time.RFC3339, settleEventStart)
	if err != nil {
		return fmt.Errorf("invalid event start time: %w", err)
	}

	result := models.BetResult(settleResult)
	if result != models.BetResultWin && result != models.BetResultLoss && result != models.BetResultPush {
		return fmt.Errorf("invalid result %q, want win, loss or push", settleResult)
	}

	rec, err := repos.Recommendation.GetByID(ctx, recID)
	if err != nil {
		return fmt.Errorf("failed to load recommendation: %w", err)
	}

	tracker := snapshot.NewTracker(snapStore, logger)
	bet, err := tracker.Settle(ctx, rec, result, settleStake, eventStart)
	if err != nil {
		return fmt.Errorf("failed to settle: %w", err)
	}

	if err := repos.Bet.Create(ctx, bet); err != nil {
		return fmt.Errorf("failed to persist settled bet: %w", err)
	}

	fmt.Printf("Settled %s as %s\n", rec.ID, result)
	if bet.HasCLV() {
		fmt.Printf("  Closing price: %.3f\n", *bet.ClosingPrice)
		fmt.Printf("  CLV: %+.2f%%\n", *bet.CLVPercentage)
	} else {
		fmt.Println("  No closing line recorded before event start")
	}
	fmt.Printf("  P/L: %+.2f units\n", bet.ProfitLoss(rec.Price))

	return nil
}

func showReport(ctx context.Context) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -reportDays)

	bets, err := repos.Bet.ListSettledBetween(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to list settled bets: %w", err)
	}

	records := make([]analytics.SettledRecord, 0, len(bets))
	for _, bet := range bets {
		rec, err := repos.Recommendation.GetByID(ctx, bet.RecommendationID)
		if err != nil {
			logger.WithField("recommendation_id", bet.RecommendationID).
				WithError(err).Warn("Skipping bet without recommendation")
			continue
		}
		records = append(records, analytics.SettledRecord{Bet: bet, Price: rec.Price})
	}

	report := analytics.Calculate(records, start, end)
	if reportJSON {
		fmt.Println(report.ToJSON())
		return nil
	}

	fmt.Printf("Settled %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("Bets:          %d (%d win / %d loss / %d push)\n",
		report.TotalBets, report.WinningBets, report.LosingBets, report.PushedBets)
	fmt.Printf("Win rate:      %.1f%%\n", report.WinRate*100)
	fmt.Printf("Net profit:    %+.2f units on %.2f staked (ROI %+.1f%%)\n",
		report.NetProfit, report.TotalStaked, report.ROI*100)
	fmt.Printf("Profit factor: %.2f\n", report.ProfitFactor)
	fmt.Printf("Expectancy:    %+.3f units per bet\n", report.Expectancy)
	fmt.Printf("Max drawdown:  %.2f units\n", report.MaxDrawdown)
	if report.CLVTrackedBets > 0 {
		fmt.Printf("CLV:           %+.2f%% avg over %d bets (%.1f%% beat the close)\n",
			report.AverageCLV, report.CLVTrackedBets, report.CLVPositiveRate*100)
	} else {
		fmt.Println("CLV:           no bets with a recorded closing line")
	}

	return nil
}

func showBudget(ctx context.Context, sourceID string) error {
	counter, err := budgetStore.Counter(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to read budget counter: %w", err)
	}

	fmt.Printf("Source:    %s\n", counter.SourceID)
	fmt.Printf("Window:    %s\n", counter.WindowDate)
	fmt.Printf("Used:      %d / %d\n", counter.CallsUsed, counter.DailyLimit)
	fmt.Printf("Remaining: %d\n", counter.Remaining())

	return nil
}

func checkHealth(ctx context.Context) error {
	factory := datasource.NewFactory(budgetStore, logger)
	sources, err := factory.NewSources(cfg.Sources)
	if err != nil {
		return err
	}

	healthy := true
	for _, source := range sources {
		if err := source.HealthCheck(ctx); err != nil {
			fmt.Printf("✗ %s: %v\n", source.Name(), err)
			healthy = false
			continue
		}
		fmt.Printf("✓ %s\n", source.Name())
	}

	modelClient := model.NewHTTPClient(&cfg.Model, logger)
	if err := modelClient.HealthCheck(ctx); err != nil {
		fmt.Printf("✗ model service: %v\n", err)
		healthy = false
	} else {
		fmt.Println("✓ model service")
	}

	if !healthy {
		return fmt.Errorf("one or more dependencies unhealthy")
	}
	return nil
}
