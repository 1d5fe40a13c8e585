// Package main provides the meshcheck CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ormasoftchile/meshcheck/pkg/config"
	"github.com/ormasoftchile/meshcheck/pkg/history"
	"github.com/ormasoftchile/meshcheck/pkg/logger"
	"github.com/ormasoftchile/meshcheck/pkg/store"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds the state shared by every subcommand. cfg is resolved in the
// root's PersistentPreRunE.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	root := &cobra.Command{
		Use:   "meshcheck",
		Short: "Cross-skill consistency and security-contract validator",
		Long: `meshcheck validates multi-skill solution topologies: handoff grants,
identity contracts, routing reachability and connector deployability.

Settings come from meshcheck.yaml (current directory or $HOME/.meshcheck),
MESHCHECK_* environment variables and flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			if err := logger.SetLogLevel(cfg.Log.Level); err != nil {
				return err
			}
			logger.SetLogFormat(cfg.Log.Format)
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./meshcheck.yaml)")
	pf.String("store", "", "store root holding solutions/, skills/, connectors.yaml and mcp-store/")
	pf.String("history", "", "report history database path")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: fmt or json")
	_ = a.v.BindPFlag("store.root", pf.Lookup("store"))
	_ = a.v.BindPFlag("history.path", pf.Lookup("history"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))

	root.AddCommand(a.validateCmd())
	root.AddCommand(a.reportCmd())
	root.AddCommand(a.historyCmd())
	root.AddCommand(a.diagramCmd())
	root.AddCommand(a.schemaCmd())
	root.AddCommand(a.mutateCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(versionCmd())
	return root
}

func (a *app) store() *store.Store {
	return store.New(a.cfg.Store.Root,
		store.WithConcurrency(a.cfg.Store.Concurrency),
		store.WithLogger(logger.L))
}

func (a *app) openHistory() (*history.DB, error) {
	db, err := history.Open(a.cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return db, nil
}

func (a *app) validateOptions(dc *validate.DeployContext) []validate.Option {
	opts := []validate.Option{validate.WithLogger(logger.L)}
	if len(a.cfg.Validate.ReservedRoots) > 0 {
		opts = append(opts, validate.WithReservedMountRoots(a.cfg.Validate.ReservedRoots...))
	}
	if dc != nil {
		opts = append(opts, validate.WithDeployContext(dc))
	}
	return opts
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meshcheck %s (build: %s)\n", version, commit)
		},
	}
}
