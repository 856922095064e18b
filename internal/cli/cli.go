// Package cli implements the locallore command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/locallore/internal/config"
	"github.com/matzehuels/locallore/pkg/buildinfo"
	"github.com/matzehuels/locallore/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "locallore"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	flags rootFlags
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "locallore harvests project dependencies into a store for indexing",
		Long: `locallore discovers the third-party dependencies declared by projects on this
machine (Cargo, npm, Go modules, Poetry) and records each (ecosystem, name,
version) once, so a downstream indexer can enrich the ones it has not seen.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.flags.register(root)
	registerFlagCompletions(root)

	// Register all subcommands
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.collectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.enqueueCommand())
	root.AddCommand(c.unindexedCommand())
	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache returns the manifest cache for one-shot commands.
func (c *CLI) newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	fc, err := c.fileCache()
	if err != nil {
		c.Logger.Warn("manifest cache disabled", "error", err)
		return cache.NewNullCache()
	}
	return fc
}

// newServeCache prefers a bounded in-memory cache for the long-lived
// process when a size is configured.
func (c *CLI) newServeCache() cache.Cache {
	if c.Config.Cache.Size > 0 {
		return cache.NewLRUCache(c.Config.Cache.Size, c.Config.Cache.TTL)
	}
	return c.newCache(false)
}

func (c *CLI) fileCache() (*cache.FileCache, error) {
	dir := c.Config.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return nil, err
		}
	}
	return cache.NewFileCache(dir, c.Config.Cache.TTL)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/locallore/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// absPath resolves a command-line path argument to a clean absolute path.
func absPath(arg string) (string, error) {
	if arg == "" {
		arg = "."
	}
	return filepath.Abs(arg)
}
