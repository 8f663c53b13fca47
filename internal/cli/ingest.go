package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"teachmatch/internal/adapter/extract"
	"teachmatch/internal/adapter/fs"
	"teachmatch/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest CV, syllabus and schedule documents",
	Long: `Ingest documents from the specified directory into the catalog.
Documents are classified by their parent directory: schedule/horario
directories feed assignment history, syllab/silabo/curso directories feed
course profiles, everything else is treated as an instructor CV.

Examples:
  teachmatch ingest .                  # Ingest current directory
  teachmatch ingest /path/to/documents # Ingest specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, err := newEmbedder()
	if err != nil {
		log.Warn().Err(err).Msg("embedding backend unavailable, semantic fallback disabled")
		embedder = nil
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	extractor := extract.NewJSONExtractor()
	resolveUC := usecase.NewResolveUseCase(st, embedder, resolverThresholds(), log)
	ingestUC := usecase.NewIngestUseCase(st, walker, extractor, extractor, extract.DefaultTagger(), resolveUC, cfg.Ingest, log)

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex

	progress := func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Ingesting"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionThrottle(100*time.Millisecond),
			)
		}
		bar.Set(processed)
	}

	result, err := ingestUC.Ingest(cmd.Context(), path, progress)
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	fmt.Printf("Documents found:     %d\n", result.DocumentsFound)
	fmt.Printf("Instructor profiles: %d\n", result.ProfilesUpserted)
	fmt.Printf("Course profiles:     %d\n", result.CoursesUpserted)
	fmt.Printf("Schedules processed: %d (%d rows resolved, %d unresolved)\n",
		result.SchedulesProcessed, result.RowsResolved, result.RowsUnresolved)
	if len(result.Errors) > 0 {
		fmt.Printf("Errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
	return nil
}
