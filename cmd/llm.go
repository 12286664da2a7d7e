package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmastery/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM provider configuration and pricing",
}

var llmInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the provider and model quizzes are generated with",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if cfg.LLM.Provider == llm.ProviderNone {
			fmt.Fprintln(out, "No LLM provider configured; quizzes use the built-in question bank.")
			return nil
		}

		model := modelFor(cfg.LLM)
		fmt.Fprintf(out, "Provider:  %s\n", cfg.LLM.Provider)
		fmt.Fprintf(out, "Model:     %s\n", model)
		fmt.Fprintf(out, "Retries:   %d (initial wait %s, max %s)\n",
			cfg.LLM.Retry.MaxAttempts, cfg.LLM.Retry.InitialWait, cfg.LLM.Retry.MaxWait)
		fmt.Fprintf(out, "Timeout:   %s per quiz\n", cfg.Quiz.GenerateTimeout)
		if c := llm.LookupCost(model); c != nil {
			fmt.Fprintf(out, "Pricing:   $%.3f in / $%.3f out per MTok\n", c.InputPerMTok, c.OutputPerMTok)
		}
		return nil
	},
}

var llmPricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Show estimated cost of one quiz per known model",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetInt("input-tokens")
		outTok, _ := cmd.Flags().GetInt("output-tokens")
		out := cmd.OutOrStdout()

		models := llm.PricedModels()
		sort.Strings(models)

		fmt.Fprintf(out, "%-32s  %10s  %10s  %10s\n", "Model", "In/MTok", "Out/MTok", "Per quiz")
		fmt.Fprintln(out, strings.Repeat("─", 70))
		for _, m := range models {
			c := llm.LookupCost(m)
			fmt.Fprintf(out, "%-32s  %10.3f  %10.3f  %10s\n",
				truncate(m, 32), c.InputPerMTok, c.OutputPerMTok, formatCost(c.Cost(in, outTok)))
		}
		return nil
	},
}

// modelFor returns the configured model of the selected provider.
func modelFor(cfg llm.Config) string {
	switch cfg.Provider {
	case llm.ProviderAnthropic:
		return cfg.Anthropic.Model
	case llm.ProviderOpenAI:
		return cfg.OpenAI.Model
	case llm.ProviderGemini:
		return cfg.Gemini.Model
	case llm.ProviderOpenRouter:
		return cfg.OpenRouter.Model
	case llm.ProviderGroq:
		return cfg.Groq.Model
	}
	return cfg.Provider
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmPricingCmd.Flags().Int("input-tokens", 600, "Prompt tokens per quiz")
	llmPricingCmd.Flags().Int("output-tokens", 2500, "Completion tokens per quiz")

	llmCmd.AddCommand(llmInfoCmd)
	llmCmd.AddCommand(llmPricingCmd)
}
