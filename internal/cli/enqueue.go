package cli

import (
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/locallore/internal/queue"
	"github.com/matzehuels/locallore/pkg/errors"
)

// enqueueCommand creates the "enqueue" command.
func (c *CLI) enqueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <path>...",
		Short: "Queue scans for a running server",
		Long: `Enqueue pushes scan requests onto the Redis queue consumed by
"locallore serve". Requires redis.addr (LOCALLORE_REDIS_ADDR).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Redis.Addr == "" {
				return errors.New(errors.ErrCodeInvalidConfig, "enqueue requires redis.addr")
			}
			rdb := redis.NewClient(&redis.Options{Addr: c.Config.Redis.Addr})
			defer rdb.Close()

			q := queue.NewRedisQueue(rdb, c.Config.Redis.QueueKey)
			for _, arg := range args {
				path, err := absPath(arg)
				if err != nil {
					return err
				}
				if err := errors.ValidateScanPath(path); err != nil {
					return err
				}
				if err := q.Enqueue(cmd.Context(), path); err != nil {
					return err
				}
				printSuccess("Queued %s", StyleHighlight.Render(path))
			}
			return nil
		},
	}
}
