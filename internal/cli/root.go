package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/locallore/internal/config"
)

// rootFlags are the persistent flags that override configuration values.
type rootFlags struct {
	configPath    string
	verbose       bool
	storeDriver   string
	storeDSN      string
	storeDatabase string
	batchSize     int
	noLinks       bool
}

func (f *rootFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&f.storeDriver, "store", "", "store driver: memory, postgres or mongo")
	pf.StringVar(&f.storeDSN, "dsn", "", "store connection string")
	pf.StringVar(&f.storeDatabase, "database", "", "database name (mongo)")
	pf.IntVar(&f.batchSize, "batch-size", 0, "concurrent upserts per batch")
	pf.BoolVar(&f.noLinks, "no-links", false, "do not record which projects use each dependency")
}

// apply copies the flags the user set onto cfg.
func (f *rootFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	if changed("store") {
		cfg.Store.Driver = f.storeDriver
	}
	if changed("dsn") {
		cfg.Store.DSN = f.storeDSN
	}
	if changed("database") {
		cfg.Store.Database = f.storeDatabase
	}
	if changed("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if changed("no-links") {
		cfg.TrackProjects = !f.noLinks
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
}

// loadConfig runs before every command: it resolves configuration from
// file, environment and flags, then configures logging.
func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}
	c.flags.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg

	if level, err := parseLevel(cfg.LogLevel); err == nil {
		c.SetLogLevel(level)
	}
	c.Logger.SetFormatter(formatter(cfg.LogFormat))
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}
