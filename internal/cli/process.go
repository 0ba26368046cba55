package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"TalkIdeas/internal/app"
	"TalkIdeas/internal/domain"
	"TalkIdeas/internal/staging"
	"TalkIdeas/internal/usecase"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List staged recordings waiting to be processed",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.Application) error {
			files, err := a.Processor().Discover()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No audio files found in %s\n", a.Config().Staging.StagingDir)
				return nil
			}
			return printFiles(out, files)
		})
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Transcribe staged recordings and generate ideas",
	Long: `Process every staged recording in filename order: transcribe it, store the
conversation and its scored ideas. Asks for confirmation unless --yes is set.

Examples:
  talkideas process            # ask before processing
  talkideas process --delete   # remove each file once it succeeded
  talkideas process --yes      # no prompt`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Bool("delete", false, "delete staged files after successful processing (default from config)")
	processCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}

func runProcess(cmd *cobra.Command, args []string) error {
	deleteAfter := cfg.Processing.DeleteAfterSuccess
	if cmd.Flags().Changed("delete") {
		deleteAfter, _ = cmd.Flags().GetBool("delete")
	}
	skipPrompt, _ := cmd.Flags().GetBool("yes")

	out := cmd.OutOrStdout()
	return withApp(cmd.Context(), func(a *app.Application) error {
		files, err := a.Processor().Discover()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintf(out, "No audio files found in %s\n", a.Config().Staging.StagingDir)
			return nil
		}

		opts := usecase.BatchOptions{
			DeleteAfterSuccess: deleteAfter,
			Confirm: func(list []staging.StagedFile) bool {
				if err := printFiles(out, list); err != nil {
					return false
				}
				if skipPrompt {
					return true
				}
				return confirm(cmd.InOrStdin(), out, fmt.Sprintf("Process %d files?", len(list)))
			},
		}

		report, err := a.Processor().ProcessBatch(cmd.Context(), files, opts)
		if errors.Is(err, domain.ErrCancelled) {
			fmt.Fprintln(out, "Processing cancelled")
			return nil
		}
		if err != nil {
			return err
		}

		for _, r := range report.Results {
			if r.OK() {
				fmt.Fprintf(out, "  ok    %s (conversation %d, %d ideas)\n", r.File.Filename, r.ConversationID, len(r.IdeaIDs))
			} else {
				fmt.Fprintf(out, "  fail  %s: %v\n", r.File.Filename, r.Err)
			}
		}
		fmt.Fprintf(out, "Batch processing complete: %d succeeded, %d failed, %d total\n",
			report.Succeeded, report.Failed, report.Total)
		return nil
	})
}

func printFiles(out io.Writer, files []staging.StagedFile) error {
	fmt.Fprintf(out, "Found %d audio files:\n", len(files))
	t := newTable(out, "FILE", "SIZE")
	for _, f := range files {
		t.addRow(f.Filename, fmt.Sprintf("%.1f MB", float64(f.Size)/(1024*1024)))
	}
	return t.render()
}

// confirm asks a y/N question; only "y" or "yes" (any case) approves.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s (y/N): ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
