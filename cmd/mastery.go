package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery",
	Short: "List a user's mastered topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		topics, err := d.ctrl.Mastered(cmd.Context(), user)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(topics) == 0 {
			fmt.Fprintln(out, "No mastered topics yet.")
			return nil
		}
		for _, t := range topics {
			fmt.Fprintf(out, "%-19s  %s\n", t.MasteredAt.Local().Format("2006-01-02 15:04:05"), t.Topic)
		}
		return nil
	},
}

func init() {
	masteryCmd.Flags().StringP("user", "u", "", "User identity (required)")
}
