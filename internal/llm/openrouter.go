package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
)

// NewOpenRouterProvider targets OpenRouter's OpenAI-compatible API. Model IDs
// are passed through unchanged.
func NewOpenRouterProvider(cfg CompatConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	return newOpenAICompatible(cfg.APIKey, cfg.Model, orDefault(cfg.BaseURL, defaultOpenRouterBaseURL), true), nil
}

// NewGroqProvider targets Groq's OpenAI-compatible API. Groq models accept
// json_object but not json_schema, so the schema is only checked locally.
func NewGroqProvider(cfg CompatConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	return newOpenAICompatible(cfg.APIKey, cfg.Model, orDefault(cfg.BaseURL, defaultGroqBaseURL), false), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
