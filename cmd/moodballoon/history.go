package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/junsooki/moodballoon/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent play sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := history.Open(cfg.History.File)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}
		printSessions(cmd.OutOrStdout(), sessions)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of sessions to show")
	rootCmd.AddCommand(historyCmd)
}

func printSessions(out io.Writer, sessions []history.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STARTED\tDURATION\tSCORE\tFRAMES\tDOMINANT")
	fmt.Fprintln(w, "-------\t--------\t-----\t------\t--------")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Duration().Round(time.Second),
			s.Score,
			s.Frames,
			s.Dominant,
		)
	}
	w.Flush()
}
