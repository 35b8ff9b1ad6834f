package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/daemon"
	"github.com/nextlevelbuilder/agentd/internal/session"
)

func serveCmd() *cobra.Command {
	var workspace string
	var host string
	var port int
	var newToken bool
	var showToken bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agentd daemon",
		Run: func(cmd *cobra.Command, args []string) {
			runServe(workspace, host, port, newToken, showToken)
		},
	}

	cmd.Flags().StringVar(&workspace, "workspace", "", "workspace name to bind sessions to when none is requested")
	cmd.Flags().StringVar(&host, "host", "", "override the configured listen host")
	cmd.Flags().IntVar(&port, "port", 0, "override the configured listen port")
	cmd.Flags().BoolVar(&newToken, "new-token", false, "generate a fresh bearer token before starting")
	cmd.Flags().BoolVar(&showToken, "show-token", false, "print the active bearer token and exit")
	return cmd
}

func runServe(workspace, host string, port int, newToken, showToken bool) {
	setupLogging()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if workspace != "" {
		cfg.DefaultWorkspace = workspace
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	if newToken {
		tok, err := rotateToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
			os.Exit(1)
		}
		cfg.Token = tok
		slog.Info("generated fresh bearer token")
	} else if cfg.Token == "" {
		tok, err := loadOrCreateToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load token: %v\n", err)
			os.Exit(1)
		}
		cfg.Token = tok
	}

	if showToken {
		fmt.Println(cfg.Token)
		return
	}

	if len(cfg.Workspaces) == 0 {
		fmt.Fprintln(os.Stderr, "no workspaces configured; add at least one under workspaces: in the config file")
		os.Exit(1)
	}

	auditDir, err := config.ConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve config dir: %v\n", err)
		os.Exit(1)
	}

	hub := session.NewHub()
	defer hub.Stop()

	d := daemon.New(cfg, auditDir, hub)
	srv := daemon.NewServer(cfg, hub, d)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
