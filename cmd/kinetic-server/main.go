// Command kinetic-server runs the Kinetic Collective credit ledger: the HTTP
// API, the gRPC health service and the snapshot syncer. Subcommands inspect
// or reset the persisted snapshot.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/kinetic/internal/config"
	"github.com/BrandonDHaskell/kinetic/internal/logging"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra has already printed the error.
		os.Exit(1)
	}
}

// newRootCmd builds a fresh command tree so tests can run commands in
// isolation.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "kinetic-server",
		Short:         "Credit ledger for the Kinetic Collective clinic network.",
		Version:       version,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, cfgFile)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file")
	pf.String("http-addr", ":8080", "HTTP listen address")
	pf.String("grpc-addr", ":9090", "gRPC health listen address")
	pf.String("env", "dev", "dev or prod")
	pf.String("db-path", "./data/kinetic.db", "sqlite database path")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("seed-file", "", "YAML seed replacing the built-in demo network")
	pf.String("snapshot-driver", "sqlite", "none, memory, sqlite, postgres, s3 or leveldb")
	pf.String("snapshot-id", "kinetic-demo", "snapshot document id")

	cmd.AddCommand(
		newServeCmd(&cfgFile),
		newSnapshotCmd(&cfgFile),
		newLedgerCmd(&cfgFile),
	)
	return cmd
}

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, *cfgFile)
		},
	}
}

// loadConfig resolves config for cmd and builds the logger it writes to.
func loadConfig(cmd *cobra.Command, cfgFile string) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.Env), nil
}
