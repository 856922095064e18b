package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/locallore/internal/worker"
	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/harvest"
	"github.com/matzehuels/locallore/pkg/store"
	"github.com/matzehuels/locallore/pkg/store/memory"
	"github.com/matzehuels/locallore/pkg/store/mongo"
	"github.com/matzehuels/locallore/pkg/store/postgres"
)

// storeConnectTimeout bounds backend retries for one-shot commands.
const storeConnectTimeout = 15 * time.Second

// openStore connects to the configured backend, retrying while it comes
// up. Postgres schemas are migrated on open.
func (c *CLI) openStore(ctx context.Context, maxWait time.Duration) (store.Store, error) {
	logger := loggerFromContext(ctx)
	cfg := c.Config.Store

	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pg, err := worker.Connect(ctx, "postgres", maxWait, logger, func(ctx context.Context) (*postgres.Store, error) {
			return postgres.Open(ctx, cfg.DSN, logger)
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(pg.DB(), logger); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	case "mongo":
		m, err := worker.Connect(ctx, "mongo", maxWait, logger, func(ctx context.Context) (*mongo.Store, error) {
			return mongo.Open(ctx, cfg.DSN, cfg.Database, logger)
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown store driver %q", cfg.Driver)
	}
}

// unindexedCommand creates the "unindexed" command.
func (c *CLI) unindexedCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "unindexed",
		Short: "List dependency records still awaiting the indexer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx, storeConnectTimeout)
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := harvest.FindUnindexed(ctx, st)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(recs)
			}
			if len(recs) == 0 {
				printSuccess("Every recorded dependency is indexed")
				return nil
			}
			printInfo("%s awaiting the indexer", StyleTitle.Render(pluralize(len(recs), "dependency", "dependencies")))
			printRecords(recs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

// migrateCommand creates the "migrate" command.
func (c *CLI) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema",
		Long: `Apply pending schema migrations (postgres) or create the unique indexes
(mongo). Both are idempotent. The memory store has no schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			switch c.Config.Store.Driver {
			case "postgres":
				pg, err := postgres.Open(ctx, c.Config.Store.DSN, logger)
				if err != nil {
					return err
				}
				defer pg.Close()
				if err := postgres.Migrate(pg.DB(), logger); err != nil {
					return err
				}
				version, dirty, err := postgres.SchemaVersion(pg.DB(), logger)
				if err != nil {
					return err
				}
				printSuccess("Schema at version %d", version)
				if dirty {
					printWarning("Schema is marked dirty; a previous migration failed")
				}
			case "mongo":
				// Open ensures indexes.
				m, err := mongo.Open(ctx, c.Config.Store.DSN, c.Config.Store.Database, logger)
				if err != nil {
					return err
				}
				defer m.Close()
				printSuccess("Indexes ensured on %s", c.Config.Store.Database)
			default:
				return errors.New(errors.ErrCodeUnsupported, "store driver %q has no schema", c.Config.Store.Driver)
			}
			return nil
		},
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
