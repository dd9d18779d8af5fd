package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/masahif/focuscrawl/internal/storage"
	"github.com/masahif/focuscrawl/internal/urlnorm"
)

// statusCmd shows the frontier of the database and what is stored for
// the given URLs
var statusCmd = &cobra.Command{
	Use:   "status [URLs...]",
	Short: "Show queue counts and stored results from the database",
	Long: `Status prints how many URLs are queued, in progress, completed and failed
in the database, and when statistics were last checkpointed. Each URL given
is canonicalized and its stored result is listed.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	store, err := openExisting(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return printStatus(cmd.OutOrStdout(), store, args)
}

func printStatus(out io.Writer, store *storage.SQLiteStorage, urls []string) error {
	queue, err := store.QueueStatus()
	if err != nil {
		return err
	}
	at, err := store.CheckpointTime()
	if err != nil {
		return fmt.Errorf("failed to read checkpoint time: %w", err)
	}

	fmt.Fprintf(out, "Queued: %d\nProcessing: %d\nCompleted: %d\nErrors: %d\n",
		queue.Queued, queue.Processing, queue.Completed, queue.Errors)
	if at.IsZero() {
		fmt.Fprintln(out, "Checkpoint: none")
	} else {
		fmt.Fprintf(out, "Checkpoint: %s\n", at.Local().Format("2006-01-02 15:04:05"))
	}

	if len(urls) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tSTATE\tSTATUS\tWORDS\tACCEPTED\tERROR")
	for _, raw := range urls {
		u, err := urlnorm.Canonicalize(raw)
		if err != nil {
			fmt.Fprintf(tw, "%s\tinvalid\t\t\t\t%v\n", raw, err)
			continue
		}
		rec, err := store.Page(u)
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Fprintf(tw, "%s\tunknown\t\t\t\t\n", u)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%t\t%s\n", u, rec.State, rec.StatusCode, rec.WordCount, rec.Accepted, rec.ErrorType)
	}
	return tw.Flush()
}
