package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/example/wordsrs/internal/bot"
	"github.com/example/wordsrs/internal/config"
	"github.com/example/wordsrs/internal/database"
	"github.com/example/wordsrs/internal/excel"
	"github.com/example/wordsrs/internal/logger"
	"github.com/example/wordsrs/internal/metrics"
	"github.com/example/wordsrs/internal/queue"
	"github.com/example/wordsrs/internal/review"
	"github.com/example/wordsrs/internal/scheduler"
	"github.com/example/wordsrs/internal/spaced_repetition"
	"github.com/example/wordsrs/pkg/models"
)

const shutdownTimeout = 5 * time.Second

// bootstrap loads configuration, the logger and the database connection.
// The returned cleanup closes them in reverse order.
func bootstrap() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(cfg.Env); err != nil {
		return nil, nil, err
	}
	if err := database.Connect(cfg.Database); err != nil {
		logger.Sync()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanup := func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
		logger.Sync()
	}
	return cfg, cleanup, nil
}

func newRegistry(cfg config.SRSConfig) (spaced_repetition.Registry, error) {
	cardParams := spaced_repetition.DefaultCardParameters()
	cardParams.RequestRetention = cfg.RequestRetention
	cardParams.MaximumInterval = cfg.CardMaximumInterval
	cards, err := spaced_repetition.NewCardScheduler(cardParams)
	if err != nil {
		return nil, err
	}

	quizParams := spaced_repetition.DefaultQuizParameters()
	quizParams.RequestRetention = cfg.RequestRetention
	var rng spaced_repetition.JitterSource
	if cfg.QuizSeed != 0 {
		rng = rand.New(rand.NewSource(cfg.QuizSeed))
	}
	quizzes, err := spaced_repetition.NewQuizScheduler(quizParams, rng)
	if err != nil {
		return nil, err
	}
	return spaced_repetition.NewRegistry(cards, quizzes), nil
}

func newReviewService(cfg *config.Config, rec *metrics.Recorder) (*review.Service, error) {
	registry, err := newRegistry(cfg.SRS)
	if err != nil {
		return nil, err
	}
	return review.NewService(registry, database.NewItemStateRepository(),
		review.WithRecorder(database.NewStore()),
		review.WithStats(database.NewStatisticsRepository()),
		review.WithMetrics(rec),
		review.WithLogger(logger.L()),
	), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseKind(raw string) (models.ItemKind, error) {
	kind := models.ItemKind(raw)
	if kind != models.KindCard && kind != models.KindQuiz {
		return "", fmt.Errorf("unknown item kind %q (want card or quiz)", raw)
	}
	return kind, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder job, the Telegram bot and the metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()
			log := logger.L()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rec := metrics.New()
			if cfg.Metrics.Addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", rec.Handler())
				srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("metrics server failed", zap.Error(err))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				log.Info("metrics endpoint listening", zap.String("addr", cfg.Metrics.Addr))
			}

			if cfg.Telegram.Token == "" {
				log.Warn("TELEGRAM_BOT_TOKEN is not set, reminders are disabled")
				<-ctx.Done()
				return nil
			}

			users := database.NewUserRepository()
			b, err := bot.New(cfg.Telegram.Token, users, database.NewStatisticsRepository(), log)
			if err != nil {
				return err
			}

			policy, err := queue.NewPolicy(cfg.Queue.Policy)
			if err != nil {
				return err
			}
			opts := queue.Options{IncludeNew: cfg.Queue.IncludeNew}
			reminders := scheduler.New(b, users, database.NewItemStateRepository(), policy, opts, cfg.Reminders,
				scheduler.WithMetrics(rec), scheduler.WithLogger(log))
			b.SetDueCounter(reminders)

			if cfg.Reminders.Enabled {
				if err := reminders.Start(); err != nil {
					return err
				}
				defer reminders.Stop()
				log.Info("reminder scheduler started",
					zap.String("policy", string(policy.Kind())),
					zap.Int("start_hour", cfg.Reminders.StartHour),
					zap.Int("end_hour", cfg.Reminders.EndHour),
				)
			}

			b.Run(ctx)
			log.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().String("metrics-addr", "", "listen address for /metrics (empty disables it)")
	_ = viper.BindPFlag("metrics_addr", cmd.Flags().Lookup("metrics-addr"))
	return cmd
}

func queueCmd() *cobra.Command {
	var (
		userID int64
		kind   string
		group  string
	)
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Print the due queue of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			policy, err := queue.NewPolicy(cfg.Queue.Policy)
			if err != nil {
				return err
			}
			candidates, err := database.NewItemStateRepository().Candidates(cmd.Context(), userID, k)
			if err != nil {
				return err
			}
			entries := policy.Build(candidates, time.Now(), queue.Options{
				Group:      group,
				Limit:      cfg.Queue.Limit,
				IncludeNew: cfg.Queue.IncludeNew,
			})
			return printJSON(entries)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user ID")
	cmd.Flags().StringVar(&kind, "kind", string(models.KindCard), "item kind: card or quiz")
	cmd.Flags().StringVar(&group, "group", "", "only items with this group tag")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func reviewCmd() *cobra.Command {
	var (
		userID     int64
		itemID     string
		kind       string
		group      string
		rating     string
		correct    bool
		responseMs int64
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Apply one rating (card) or answer (quiz) to an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			ev := spaced_repetition.Event{IsCorrect: correct, ResponseTimeMs: responseMs}
			if k == models.KindCard {
				if ev.Rating, err = spaced_repetition.ParseRating(rating); err != nil {
					return err
				}
			}

			svc, err := newReviewService(cfg, nil)
			if err != nil {
				return err
			}
			req := review.Request{UserID: userID, ItemID: itemID, Kind: k, GroupTag: group, Event: ev}

			var res *review.Result
			if dryRun {
				res, err = svc.Ingest(cmd.Context(), req)
			} else {
				res, err = svc.Review(cmd.Context(), req)
			}
			svc.Wait()
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user ID")
	cmd.Flags().StringVar(&itemID, "item", "", "item ID")
	cmd.Flags().StringVar(&kind, "kind", string(models.KindCard), "item kind: card or quiz")
	cmd.Flags().StringVar(&group, "group", "", "group tag to store with the item")
	cmd.Flags().StringVar(&rating, "rating", "good", "card rating: again, hard, good or easy")
	cmd.Flags().BoolVar(&correct, "correct", false, "quiz answer was correct")
	cmd.Flags().Int64Var(&responseMs, "response-ms", 0, "quiz response time in milliseconds")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the outcome without saving it")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func previewCmd() *cobra.Command {
	var (
		userID int64
		itemID string
		kind   string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the outcome of every possible response to an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			svc, err := newReviewService(cfg, nil)
			if err != nil {
				return err
			}
			previews, err := svc.Preview(cmd.Context(), userID, itemID, k)
			if err != nil {
				return err
			}
			out := make(map[string]spaced_repetition.Preview, len(previews))
			for r, p := range previews {
				out[r.String()] = p
			}
			return printJSON(out)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user ID")
	cmd.Flags().StringVar(&itemID, "item", "", "item ID")
	cmd.Flags().StringVar(&kind, "kind", string(models.KindCard), "item kind: card or quiz")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		userID int64
		out    string
		days   int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's review history to an .xlsx or .csv file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			var since time.Time
			if days > 0 {
				since = time.Now().AddDate(0, 0, -days)
			}
			records, err := database.NewReviewHistoryRepository().ListByUser(cmd.Context(), userID, since)
			if err != nil {
				return err
			}
			if err := excel.ExportHistory(out, records); err != nil {
				return err
			}
			logger.Info("history exported", zap.Int64("user_id", userID), zap.Int("records", len(records)), zap.String("path", out))
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user ID")
	cmd.Flags().StringVar(&out, "out", "history.xlsx", "output file (.xlsx or .csv)")
	cmd.Flags().IntVar(&days, "days", 0, "only reviews from the last N days (0 for all)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func importCmd() *cobra.Command {
	var (
		userID int64
		file   string
		kind   string
		sheet  string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Register the items listed in an .xlsx or .csv file as new items",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			cfg := excel.DefaultImportConfig()
			cfg.FilePath = file
			cfg.UserID = userID
			cfg.DefaultKind = k
			if sheet != "" {
				cfg.SheetName = sheet
			}

			res, err := excel.ImportItems(cmd.Context(), cfg, database.NewItemStateRepository())
			if err != nil {
				return err
			}
			for _, msg := range res.Errors {
				logger.Warn("skipped row", zap.String("reason", msg))
			}
			return printJSON(res)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user ID")
	cmd.Flags().StringVar(&file, "file", "", "input file (.xlsx or .csv)")
	cmd.Flags().StringVar(&kind, "kind", string(models.KindCard), "kind for rows without one")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name for .xlsx input")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
