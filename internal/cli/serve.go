package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/locallore/internal/handoff"
	"github.com/matzehuels/locallore/internal/metrics"
	"github.com/matzehuels/locallore/internal/queue"
	"github.com/matzehuels/locallore/internal/server"
	"github.com/matzehuels/locallore/internal/telemetry"
	"github.com/matzehuels/locallore/internal/worker"
	"github.com/matzehuels/locallore/pkg/harvest"
)

// serveConnectTimeout bounds backend retries at startup. Containers often
// start before their database.
const serveConnectTimeout = 2 * time.Minute

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan scheduler, queue consumer and HTTP API",
		Long: `Serve scans the configured paths on startup and every interval, consumes
scan requests from Redis when configured, and serves the HTTP API:

  GET  /healthz
  GET  /metrics
  POST /scans                  {"path": "/abs/project"}
  GET  /dependencies/unindexed
  GET  /dependencies/projects?ecosystem=&name=&version=`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.HTTP.Addr = addr
			}
			return c.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	return cmd
}

func (c *CLI) serve(ctx context.Context) error {
	cfg := c.Config
	logger := c.Logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint: cfg.OTel.Endpoint,
		Insecure: cfg.OTel.Insecure,
		Service:  cfg.OTel.Service,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	st, err := c.openStore(ctx, serveConnectTimeout)
	if err != nil {
		return err
	}
	defer st.Close()

	scanner := harvest.New(st, harvest.Options{
		Cache:               c.newServeCache(),
		CacheTTL:            cfg.Cache.TTL,
		BatchSize:           cfg.BatchSize,
		DisableProjectLinks: !cfg.TrackProjects,
		Logger:              logger,
	})

	wopts := worker.Options{
		Paths:    cfg.Paths,
		Interval: cfg.Interval,
		LockTTL:  cfg.Redis.LockTTL,
		Logger:   logger,
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		if _, err := worker.Connect(ctx, "redis", serveConnectTimeout, logger, func(ctx context.Context) (string, error) {
			return rdb.Ping(ctx).Result()
		}); err != nil {
			return err
		}
		q := queue.NewRedisQueue(rdb, cfg.Redis.QueueKey)
		if n, err := q.Recover(ctx); err != nil {
			logger.Warn("recover scan requests", "error", err)
		} else if n > 0 {
			logger.Info("requeued unacknowledged scan requests", "count", n)
		}
		wopts.Queue = q
		wopts.Locker = queue.NewRedisLocker(rdb, "")
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := handoff.NewPublisher(handoff.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
		defer pub.Close()
		wopts.Publisher = pub
	}

	w := worker.New(scanner, wopts)
	api := server.New(st, w, reg, logger)

	logger.Info("serving",
		"store", cfg.Store.Driver,
		"paths", len(cfg.Paths),
		"interval", cfg.Interval,
		"redis", cfg.Redis.Addr != "",
		"kafka", len(cfg.Kafka.Brokers) > 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return server.ListenAndServe(gctx, cfg.HTTP.Addr, api.Routes(), logger) })
	return g.Wait()
}
