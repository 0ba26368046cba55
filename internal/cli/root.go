// Package cli contains all commands of the talkideas binary.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"TalkIdeas/internal/app"
	"TalkIdeas/internal/config"
	"TalkIdeas/internal/logging"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "talkideas",
	Short: "Turn recorded conversations into scored blog post ideas",
	Long: `talkideas watches a synced folder for recorded conversations, stages them,
transcribes them and asks an LLM for scored blog post ideas.

Example usage:
  talkideas watch              # stage blog_* recordings as they arrive
  talkideas process            # transcribe staged files and generate ideas
  talkideas ideas --pending    # best ideas not yet sent to production
  talkideas serve              # dashboard API on :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $TALKIDEAS_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func initConfig() error {
	if cfgFile != "" {
		loaded, err := config.LoadFile(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Load()
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger = logging.NewWithWriter(os.Stderr, level, cfg.Logging.Format)
	return nil
}

// withApp opens the application for the duration of fn.
func withApp(ctx context.Context, fn func(*app.Application) error) error {
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()
	return fn(application)
}
