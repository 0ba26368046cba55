package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"TalkIdeas/internal/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stage trigger recordings from the watched folder",
	Long: `Watch the synced folder and copy every blog_* recording into the staging
area once the sync client has finished writing it. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app.Application) error {
			return a.Watch(ctx)
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		return withApp(ctx, func(a *app.Application) error {
			return a.Serve(ctx, addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config)")
}
