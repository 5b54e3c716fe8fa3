package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "wordsrs",
		Short:         "Spaced-repetition scheduling for vocabulary cards and quiz questions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	f := rootCmd.PersistentFlags()
	f.String("env", "development", "runtime environment (production enables JSON logs)")
	f.String("db-type", "sqlite", "database driver: sqlite or postgres")
	f.String("db-dsn", "", "postgres connection string")
	f.String("sqlite-path", "data/wordsrs.db", "path to the sqlite database")
	f.String("queue-policy", "priority", "due-queue policy: priority or attempt_history")
	f.Int("queue-limit", 20, "maximum entries in a due queue (0 for no limit)")
	f.Bool("queue-include-new", true, "include never-reviewed items in the attempt_history queue")
	f.Float64("request-retention", 0.9, "target recall probability")
	f.Int64("quiz-seed", 0, "seed for quiz interval jitter (0 seeds from the clock)")

	// viper keys use underscores so they match the environment variable names
	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("env", "env")
	bindFlag("db_type", "db-type")
	bindFlag("db_dsn", "db-dsn")
	bindFlag("sqlite_path", "sqlite-path")
	bindFlag("queue_policy", "queue-policy")
	bindFlag("queue_limit", "queue-limit")
	bindFlag("queue_include_new", "queue-include-new")
	bindFlag("srs_request_retention", "request-retention")
	bindFlag("srs_quiz_seed", "quiz-seed")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(
		serveCmd(),
		queueCmd(),
		reviewCmd(),
		previewCmd(),
		exportCmd(),
		importCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
