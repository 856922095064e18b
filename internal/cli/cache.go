package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCommand creates the manifest cache management command. It manages
// the on-disk cache; serve with cache.size set keeps an in-memory LRU instead.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the manifest cache",
		Long: `scan and collect cache each collector's result keyed by the digest of the
manifests it read, so unchanged projects are not re-parsed.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached manifest results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}

			remove, what := fc.Clear, "cached"
			if expired {
				remove, what = fc.Prune, "expired"
			}
			count, err := remove()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("No %s entries", what)
				return nil
			}
			printSuccess("Removed %s", pluralize(count, what+" entry", what+" entries"))
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired or unreadable entries")
	return cmd
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			fmt.Fprintln(stdout, fc.Dir())
			return nil
		},
	}
}
