package cli

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/harvest"
	"github.com/matzehuels/locallore/pkg/store"
	"github.com/matzehuels/locallore/pkg/store/memory"
)

// scanOptions holds flags shared by scan and collect.
type scanOptions struct {
	noCache bool
	asJSON  bool
}

func (o *scanOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "re-parse manifests even when unchanged")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the result as JSON")
}

// newScanner builds a scanner over st with the configured options.
func (c *CLI) newScanner(st store.Store, noCache bool) *harvest.Scanner {
	return harvest.New(st, harvest.Options{
		Cache:               c.newCache(noCache),
		CacheTTL:            c.Config.Cache.TTL,
		BatchSize:           c.Config.BatchSize,
		DisableProjectLinks: !c.Config.TrackProjects,
		Logger:              c.Logger,
	})
}

// scanCommand creates the "scan" command.
func (c *CLI) scanCommand() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Harvest a project's dependencies into the store",
		Long: `Scan collects the dependencies declared below path (default: the current
directory), records new identities, refreshes the last-seen time of known
ones and lists the records still awaiting the indexer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path, err := absPath(firstArg(args))
			if err != nil {
				return err
			}

			st, err := c.openStore(ctx, storeConnectTimeout)
			if err != nil {
				return err
			}
			defer st.Close()
			if _, ok := st.(*memory.Store); ok && !opts.asJSON {
				printWarning("Using the memory store; records are discarded on exit")
			}

			var spinner *Spinner
			if !opts.asJSON {
				spinner = newSpinnerWithContext(ctx, "Scanning "+path+"...")
				spinner.Start()
			}
			prog := newProgress(c.Logger)
			summary, err := c.newScanner(st, opts.noCache).Scan(ctx, path)
			if spinner != nil {
				spinner.Stop()
			}
			if err != nil {
				return err
			}
			prog.done("Scanned " + path)

			if opts.asJSON {
				return writeJSON(summary)
			}
			printScanSummary(summary)
			if len(summary.Unindexed) > 0 {
				printNewline()
				printNextStep("List unindexed records", appName+" unindexed")
			}
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

// collectCommand creates the "collect" command.
func (c *CLI) collectCommand() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "collect [path]",
		Short: "Print the dependencies a scan would record",
		Long: `Collect runs every collector over path and prints the deduplicated
identities. Nothing is written to the store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := absPath(firstArg(args))
			if err != nil {
				return err
			}

			found, err := c.newScanner(memory.New(), opts.noCache).Collect(cmd.Context(), path)
			if err != nil {
				return err
			}
			sortDependencies(found)

			if opts.asJSON {
				return writeJSON(found)
			}
			counts := make(map[deps.Ecosystem]int)
			for _, d := range found {
				counts[d.Ecosystem]++
				printDetail("%s", d.Identity)
			}
			printCounts(counts)
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

func sortDependencies(ds []deps.Dependency) {
	slices.SortFunc(ds, func(a, b deps.Dependency) int {
		return cmp.Or(
			cmp.Compare(a.Ecosystem, b.Ecosystem),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Version, b.Version),
		)
	})
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
