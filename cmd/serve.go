package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmastery/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		d, err := buildDeps(cmd, cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := api.NewServer(api.Options{
			Engine:      d.ctrl,
			Auth:        api.NewAuthenticator(cfg.Auth.JWTSecret),
			Log:         d.log,
			CORSOrigins: cfg.HTTP.CORSOrigins,
		})
		if err := srv.ListenAndServe(ctx, cfg.HTTP.Addr, cfg.HTTP.ReadHeaderTimeout, cfg.HTTP.ShutdownTimeout); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
