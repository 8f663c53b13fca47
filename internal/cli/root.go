package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"teachmatch/config"
	"teachmatch/internal/adapter/embedding"
	"teachmatch/internal/adapter/resolver"
	"teachmatch/internal/adapter/store"
	"teachmatch/internal/port"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	log     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "teachmatch",
	Short: "Instructor recommendation engine - rank instructors per course",
	Long: `teachmatch ranks instructors for courses by blending historical teaching
experience with semantic profile similarity, explains each ranking with
per-feature attributions, and resolves noisy schedule names against the
catalog.

Example usage:
  teachmatch ingest ./documents        # Ingest CVs, syllabi and schedules
  teachmatch recommend -c <course-id>  # Rank instructors for a course
  teachmatch cache stats               # Inspect the recommendation cache`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level, err := zerolog.ParseLevel(cfg.Logging.Level)
		if err != nil {
			level = zerolog.InfoLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).
			With().Timestamp().Logger()

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./teachmatch.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "data directory (default is current directory)")
}

// openStore opens the catalog database, creating the data directory when
// missing.
func openStore() (*store.BoltStore, error) {
	if err := config.EnsureDataDir(rootDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewBoltStore(config.CatalogDBPath(rootDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog store: %w", err)
	}
	return st, nil
}

// newEmbedder builds the configured embedding backend.
func newEmbedder() (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai":
		return embedding.NewClient(e.APIKeyEnv, e.Model, e.BaseURL, e.Dimension, e.BatchSize)
	case "ollama":
		return embedding.NewOllamaClient(e.Model, e.BaseURL, e.Dimension, e.BatchSize), nil
	case "mock":
		return embedding.NewMockEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
}

func resolverThresholds() resolver.Thresholds {
	return resolver.Thresholds{
		InstructorAccept:    cfg.Resolver.InstructorAccept,
		InstructorBonus:     cfg.Resolver.InstructorBonus,
		CourseLexicalAccept: cfg.Resolver.CourseLexicalAccept,
		SemanticTrigger:     cfg.Resolver.SemanticTrigger,
		SemanticAccept:      cfg.Resolver.SemanticAccept,
	}
}
