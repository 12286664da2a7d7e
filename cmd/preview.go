package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmastery/internal/llm"
	"github.com/abhisek/quizmastery/internal/logger"
	"github.com/abhisek/quizmastery/internal/questions"
	"github.com/abhisek/quizmastery/internal/quiz"
)

var previewCmd = &cobra.Command{
	Use:   "preview <topic>",
	Short: "Preview LLM-generated questions for a topic (no database)",
	Long: `Generate a quiz for a topic and answer it interactively.

This is a stateless developer tool: no database, no mastery tracking, no
history. Useful for evaluating question quality of a provider or prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().Bool("key", false, "Print the answer key instead of asking")
	previewCmd.Flags().Bool("fallback", false, "Use the built-in question bank instead of the LLM")
}

func runPreview(cmd *cobra.Command, args []string) error {
	topic := strings.TrimSpace(args[0])
	showKey, _ := cmd.Flags().GetBool("key")
	useFallback, _ := cmd.Flags().GetBool("fallback")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var qs []quiz.Question
	if useFallback {
		qs = questions.FallbackBank(topic)
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		provider, err := llm.NewProvider(ctx, cfg.LLM, logger.Nop())
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		fmt.Fprintf(out, "Generating quiz on %q with %s...\n\n", topic, provider.ModelID())
		// Unlike the engine, preview surfaces generation failures.
		qs, err = questions.NewLLMSource(provider, questions.DefaultConfig()).Fetch(ctx, topic)
		if err != nil {
			return err
		}
	}

	if showKey {
		printQuestions(out, qs, true)
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	answers := make([]quiz.Answer, 0, len(qs))
	for i, q := range qs {
		printQuestions(out, qs[i:i+1], false)
		fmt.Fprint(out, "Your answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}

		in := strings.TrimSpace(scanner.Text())
		n, err := strconv.Atoi(in)
		if in == "" || err != nil {
			answers = append(answers, quiz.Unset)
			fmt.Fprintf(out, "(skipped) Answer: %d\n\n", q.CorrectIndex)
			continue
		}
		answers = append(answers, quiz.Choice(n))
		if n == q.CorrectIndex {
			fmt.Fprintln(out, "\033[32m✓ Correct!\033[0m")
		} else {
			fmt.Fprintf(out, "\033[31m✗ Wrong.\033[0m Answer: %d\n", q.CorrectIndex)
		}
		if q.Explanation != "" {
			fmt.Fprintf(out, "Explanation: %s\n", q.Explanation)
		}
		fmt.Fprintln(out)
	}

	res := quiz.ResultFor(quiz.Score(qs, answers))
	fmt.Fprintf(out, "── Summary: %d/%d correct ──\n%s\n", res.Score, len(qs), res.Message)
	return nil
}
