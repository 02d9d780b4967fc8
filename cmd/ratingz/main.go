// Command ratingz runs the movie rating API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/config"
	"github.com/Clark-Hu/ratingz/internal/logger"
)

var (
	envFiles   []string
	rootLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "ratingz",
	Short:         "Movie rating service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFiles...); err != nil {
			return err
		}
		var err error
		rootLogger, err = logger.New(config.LoadLogger())
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rootLogger != nil {
			_ = rootLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ratingz:", err)
		os.Exit(1)
	}
}
