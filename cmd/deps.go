package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmastery/internal/config"
	"github.com/abhisek/quizmastery/internal/llm"
	"github.com/abhisek/quizmastery/internal/logger"
	"github.com/abhisek/quizmastery/internal/questions"
	"github.com/abhisek/quizmastery/internal/session"
	"github.com/abhisek/quizmastery/internal/store"
)

// loadConfig reads the config file and environment, then applies the root
// persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.Store.Driver = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.Store.DSN = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, cfg.Validate()
}

// deps is everything a command needs to drive the engine.
type deps struct {
	cfg     *config.Config
	log     *logger.Logger
	backend *store.Backend
	ctrl    *session.Controller
}

func (d *deps) Close() {
	if err := d.backend.Close(); err != nil {
		d.log.Warn("closing store", "error", err)
	}
	d.log.Sync()
}

// buildDeps opens the store and wires the controller. A missing LLM
// provider is not fatal: quizzes come from the fallback bank.
func buildDeps(cmd *cobra.Command, cfg *config.Config) (*deps, error) {
	ctx := cmd.Context()

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	backend, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var primary questions.Source
	provider, err := llm.NewProvider(ctx, cfg.LLM, log)
	switch {
	case err == nil:
		primary = questions.NewLLMSource(provider, questions.DefaultConfig())
	case errors.Is(err, llm.ErrNotConfigured):
		fmt.Fprintln(os.Stderr, "LLM provider not configured; quizzes will use the built-in question bank.")
	default:
		backend.Close()
		return nil, fmt.Errorf("LLM provider: %w", err)
	}

	ctrl := session.New(session.Config{
		Source:   questions.NewService(primary, cfg.Quiz.GenerateTimeout, log),
		Sessions: backend.Sessions,
		Mastery:  backend.Mastery,
		History:  backend.History,
		Log:      log,
	})
	return &deps{cfg: cfg, log: log, backend: backend, ctrl: ctrl}, nil
}

// openDeps is loadConfig followed by buildDeps.
func openDeps(cmd *cobra.Command) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return buildDeps(cmd, cfg)
}

// requireUser reads the --user flag.
func requireUser(cmd *cobra.Command) (string, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return "", errors.New("--user is required")
	}
	return user, nil
}
