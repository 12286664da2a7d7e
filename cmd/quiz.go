package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmastery/internal/quiz"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Drive a quiz attempt for one user and topic",
}

var quizGenerateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Start a quiz, or resume the one in progress",
	Args:  cobra.ExactArgs(1),
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

		qs, err := d.ctrl.GenerateOrResume(cmd.Context(), user, args[0])
		if errors.Is(err, quiz.ErrAlreadyMastered) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is already mastered.\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}
		printQuestions(cmd.OutOrStdout(), qs, false)
		return nil
	},
}

var quizSubmitCmd = &cobra.Command{
	Use:   "submit <topic>",
	Short: "Submit answers for the quiz in progress",
	Long: `Submit answers as a comma-separated list of zero-based option indexes.
Leave a position empty, or write "-", to skip that question:

  quizmastery quiz submit --user ana@example.com --answers 0,1,-,3 Arrays`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUser(cmd)
		if err != nil {
			return err
		}
		raw, _ := cmd.Flags().GetString("answers")
		cheating, _ := cmd.Flags().GetBool("cheating")
		answers, err := parseAnswers(raw)
		if err != nil {
			return err
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		res, err := d.ctrl.Submit(cmd.Context(), user, args[0], answers, cheating)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Score: %d/%d  Passed: %v\n%s\n",
			res.Score, quiz.QuestionCount, res.Passed, res.Message)
		return nil
	},
}

var quizCleanupCmd = &cobra.Command{
	Use:   "cleanup <topic>",
	Short: "Abandon the quiz in progress",
	Args:  cobra.ExactArgs(1),
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

		if err := d.ctrl.Cleanup(cmd.Context(), user, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Quiz session cleaned up")
		return nil
	},
}

var quizEvaluateCmd = &cobra.Command{
	Use:   "evaluate <topic>",
	Short: "Review the most recent completed attempt",
	Args:  cobra.ExactArgs(1),
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

		ev, err := d.ctrl.EvaluateLatest(cmd.Context(), user, args[0])
		if errors.Is(err, quiz.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "No assessment found for this topic.")
			return nil
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Taken %s  Score: %d/%d  Passed: %v\n\n",
			ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), ev.Score, len(ev.Questions), ev.Passed)
		for i, q := range ev.Questions {
			mark := "✗"
			given := "(skipped)"
			if i < len(ev.Answers) && ev.Answers[i].Set {
				given = strconv.Itoa(ev.Answers[i].Index)
				if ev.Answers[i].Index == q.CorrectIndex {
					mark = "✓"
				}
			}
			fmt.Fprintf(out, "%s %d. %s\n   your answer: %s  correct: %d\n", mark, i+1, q.Text, given, q.CorrectIndex)
		}
		return nil
	},
}

// parseAnswers reads "0,1,,3" style input. Empty and "-" entries are unset.
func parseAnswers(raw string) ([]quiz.Answer, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]quiz.Answer, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || p == "-" {
			out[i] = quiz.Unset
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("answer %d: %q is not an option index", i+1, p)
		}
		out[i] = quiz.Choice(n)
	}
	return out, nil
}

func printQuestions(w io.Writer, qs []quiz.Question, withKey bool) {
	for i, q := range qs {
		fmt.Fprintf(w, "── Question %d/%d ──\n%s\n", i+1, len(qs), q.Text)
		for j, opt := range q.Options {
			fmt.Fprintf(w, "  %d) %s\n", j, opt)
		}
		if withKey {
			fmt.Fprintf(w, "  answer: %d\n", q.CorrectIndex)
			if q.Explanation != "" {
				fmt.Fprintf(w, "  %s\n", q.Explanation)
			}
		}
		fmt.Fprintln(w)
	}
}

func init() {
	for _, c := range []*cobra.Command{quizGenerateCmd, quizSubmitCmd, quizCleanupCmd, quizEvaluateCmd} {
		c.Flags().StringP("user", "u", "", "User identity (required)")
		quizCmd.AddCommand(c)
	}
	quizSubmitCmd.Flags().StringP("answers", "a", "", "Comma-separated option indexes")
	quizSubmitCmd.Flags().Bool("cheating", false, "Report suspicious activity; the attempt scores zero")
}
