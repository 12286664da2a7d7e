package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <topic>",
	Short: "List archived attempts on a topic, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		recs, err := d.ctrl.History(cmd.Context(), user, args[0], limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "No attempts recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-5s  %-6s  %s\n", "Taken", "Score", "Passed", "Session")
		fmt.Fprintln(out, strings.Repeat("─", 72))
		for _, r := range recs {
			passed := "✗"
			if r.Passed {
				passed = "✓"
			}
			fmt.Fprintf(out, "%-19s  %2d/%-2d  %-6s  %s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.Score, len(r.Questions), passed, r.SessionID)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringP("user", "u", "", "User identity (required)")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show (0 for all)")
}
