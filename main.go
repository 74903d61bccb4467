package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/config"
	"github.com/vizille/dashboard/internal/logging"
	"github.com/vizille/dashboard/internal/source"
)

// cli carries the global flags and what PersistentPreRunE builds from them.
type cli struct {
	configPath string
	source     string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "vizille",
		Short: "Vizille en mouvement - municipal actions dashboard",
		Long: `vizille serves and explores the municipal actions dataset of Vizille.

The dataset is loaded once from a file, an HTTP(S) URL, a redis key or an
S3 object, then filtered, sorted and grouped in memory.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv("VIZILLE_CONFIG"), "YAML config file")
	root.PersistentFlags().StringVarP(&c.source, "source", "s", "", "dataset location (path, http(s)://, redis://, s3://)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		c.serveCmd(),
		c.summaryCmd(),
		c.listCmd(),
		c.validateCmd(),
		c.browseCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.source != "" {
		cfg.Source = c.source
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.cfg, c.log = cfg, logger
	return nil
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.ListenAddr = addr
			}
			return serve(cmd.Context(), c.cfg, c.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
	return cmd
}

// load fetches and decodes the configured dataset once.
func (c *cli) load(ctx context.Context) ([]*actions.Action, error) {
	src, err := source.Open(ctx, c.cfg.Source, sourceOptions(c.cfg))
	if err != nil {
		return nil, err
	}
	if cl, ok := src.(io.Closer); ok {
		defer cl.Close()
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GetFetchTimeout())
	defer cancel()

	all, err := source.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	c.log.Debug("dataset loaded", zap.Stringer("source", src), zap.Int("records", len(all)))
	return all, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
