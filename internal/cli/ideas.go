package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"TalkIdeas/internal/app"
	"TalkIdeas/internal/domain"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd.Context(), func(a *app.Application) error {
			conversations, err := a.Store().ListConversations(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(conversations) > limit {
				conversations = conversations[:limit]
			}
			out := cmd.OutOrStdout()
			if len(conversations) == 0 {
				fmt.Fprintln(out, "No conversations yet")
				return nil
			}

			t := newTable(out, "ID", "CREATED", "SOURCE", "STATUS", "WORDS", "TITLE")
			for _, c := range conversations {
				t.addRow(
					strconv.FormatInt(c.ID, 10),
					c.CreatedAt.Local().Format("2006-01-02 15:04"),
					string(c.Source),
					c.Status,
					strconv.Itoa(c.WordCount),
					c.Title,
				)
			}
			return t.render()
		})
	},
}

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Show the best scored ideas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		pending, _ := cmd.Flags().GetBool("pending")
		return withApp(cmd.Context(), func(a *app.Application) error {
			var (
				ideas []domain.BlogPostIdea
				err   error
			)
			if pending {
				ideas, err = a.Store().ListPendingIdeas(cmd.Context(), limit)
			} else {
				ideas, err = a.Store().ListTopIdeas(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			return printIdeas(cmd.OutOrStdout(), ideas)
		})
	},
}

var markSentCmd = &cobra.Command{
	Use:   "mark-sent ID",
	Short: "Flag an idea as sent to production",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid idea id %q", args[0])
		}
		return withApp(cmd.Context(), func(a *app.Application) error {
			ok, err := a.Store().MarkSentToProd(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("idea %d: %w", id, domain.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Idea %d marked as sent\n", id)
			return nil
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Send pending ideas to Telegram and mark them sent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd.Context(), func(a *app.Application) error {
			publisher, err := a.Publisher()
			if err != nil {
				return err
			}
			n, err := publisher.Publish(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d ideas\n", n)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE|URL",
	Short: "Import a transcript (.html, .htm, .txt, .md or a web page) and generate ideas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.Application) error {
			res, err := a.Processor().ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported conversation %d with %d ideas\n", res.ConversationID, len(res.IdeaIDs))
			return nil
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add [TEXT]",
	Short: "Store a conversation typed by hand (reads stdin without TEXT)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(raw)
		}
		text = strings.TrimSpace(text)

		return withApp(cmd.Context(), func(a *app.Application) error {
			res, err := a.Processor().ProcessText(cmd.Context(), title, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored conversation %d with %d ideas\n", res.ConversationID, len(res.IdeaIDs))
			return nil
		})
	},
}

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reset, _ := cmd.Flags().GetBool("reset")
		return withApp(cmd.Context(), func(a *app.Application) error {
			if reset {
				if err := a.ResetStore(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Database reset")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s\n", a.Config().Database.Path)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(recentCmd, ideasCmd, markSentCmd, publishCmd, importCmd, addCmd, initdbCmd)

	recentCmd.Flags().Int("limit", 10, "number of conversations to show")
	ideasCmd.Flags().Int("limit", 10, "number of ideas to show")
	ideasCmd.Flags().Bool("pending", false, "only ideas not yet sent to production")
	publishCmd.Flags().Int("limit", 10, "maximum ideas per digest")
	addCmd.Flags().String("title", "", "conversation title")
	initdbCmd.Flags().Bool("reset", false, "drop all data and recreate the schema")
}

func printIdeas(out io.Writer, ideas []domain.BlogPostIdea) error {
	if len(ideas) == 0 {
		fmt.Fprintln(out, "No ideas found")
		return nil
	}

	t := newTable(out, "ID", "SCORE", "SENT", "CONV", "TITLE")
	for _, idea := range ideas {
		sent := "no"
		if idea.SentToProd {
			sent = "yes"
		}
		t.addRow(
			strconv.FormatInt(idea.ID, 10),
			fmt.Sprintf("%d/%d", idea.TotalScore, domain.MaxScore),
			sent,
			strconv.FormatInt(idea.ConversationID, 10),
			idea.Title,
		)
	}
	return t.render()
}

