package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/antpack/internal/server"
	"github.com/matzehuels/antpack/pkg/cache"
	"github.com/matzehuels/antpack/pkg/metrics"
	"github.com/matzehuels/antpack/pkg/observability"
	"github.com/matzehuels/antpack/pkg/pipeline"
)

const envRedisURL = "ANTPACK_REDIS_URL"

type serveOpts struct {
	cfg       server.Config
	redisURL  string
	namespace string
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		cfg: server.Config{
			Addr:         server.DefaultAddr,
			MaxItems:     server.DefaultMaxItems,
			MaxBins:      server.DefaultMaxBins,
			MaxBudget:    server.DefaultMaxBudget,
			SolveTimeout: server.DefaultSolveTimeout,
		},
		redisURL:  os.Getenv(envRedisURL),
		namespace: "api:",
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API.

Results are stored in Redis when --redis-url (or ` + envRedisURL + `) is set,
otherwise in the local cache directory. Prometheus metrics are served on
/metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.cfg.Addr, "addr", opts.cfg.Addr, "listen address")
	f.StringVar(&opts.redisURL, "redis-url", opts.redisURL, "Redis URL, e.g. redis://localhost:6379/0")
	f.StringVar(&opts.namespace, "namespace", opts.namespace, "prefix for cache keys written by the API")
	f.IntVar(&opts.cfg.MaxItems, "max-items", opts.cfg.MaxItems, "largest accepted item count")
	f.IntVar(&opts.cfg.MaxBins, "max-bins", opts.cfg.MaxBins, "largest accepted bin count")
	f.IntVar(&opts.cfg.MaxBudget, "max-budget", opts.cfg.MaxBudget, "largest accepted evaluations per request")
	f.DurationVar(&opts.cfg.SolveTimeout, "solve-timeout", opts.cfg.SolveTimeout, "time limit per solve request")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()

	backend, err := c.serverCache(cmd, opts.redisURL)
	if err != nil {
		return err
	}
	defer backend.Close()

	reg := metrics.DefaultRegistry()
	observability.SetOptimizerHooks(reg)
	observability.SetCacheHooks(reg)
	observability.SetHTTPHooks(reg)

	runner := pipeline.NewRunner(cache.NewObserved(backend), cache.NewScopedKeyer(nil, opts.namespace), c.Logger)
	srv := server.New(opts.cfg, runner, reg, c.Logger)

	printInfo("Listening on %s", opts.cfg.Addr)
	start := time.Now()
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	printDetail("Served for %s", time.Since(start).Round(time.Second))
	return nil
}

// serverCache opens Redis when a URL is given and the local file cache
// otherwise.
func (c *CLI) serverCache(cmd *cobra.Command, redisURL string) (cache.Cache, error) {
	if redisURL != "" {
		rc, err := cache.NewRedisCache(cmd.Context(), redisURL, "antpack:")
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		c.Logger.Info("using redis cache")
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("using file cache", "dir", dir)
	return fc, nil
}
