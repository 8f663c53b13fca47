package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"teachmatch/internal/adapter/extract"
	"teachmatch/internal/adapter/resolver"
	"teachmatch/internal/usecase"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <schedule-file>",
	Short: "Resolve a schedule document into assignment history",
	Long: `Resolve the noisy instructor and course names of one schedule document
against the catalog and record the resulting assignments. Unresolved rows
are reported and skipped; they never abort the batch.

Examples:
  teachmatch resolve horarios/2024-10.json
  teachmatch resolve horarios/2024-10.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output as JSON")
}

func runResolve(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read schedule: %w", err)
	}

	rows, err := extract.NewJSONExtractor().ExtractSchedule(raw)
	if err != nil {
		return err
	}

	// Fill missing periods from the filename before falling back to the
	// generic historical bucket.
	period := resolver.PeriodFromFilename(filepath.Base(args[0]))
	for i := range rows {
		if strings.TrimSpace(rows[i].Period) == "" {
			if period != "" {
				rows[i].Period = period
			} else {
				rows[i].Period = resolver.FallbackPeriod
			}
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	// The semantic fallback is optional here; resolution degrades to
	// lexical-only matching when no embedding backend is configured.
	embedder, err := newEmbedder()
	if err != nil {
		log.Warn().Err(err).Msg("embedding backend unavailable, semantic fallback disabled")
		embedder = nil
	}

	uc := usecase.NewResolveUseCase(st, embedder, resolverThresholds(), log)
	report, err := uc.ResolveAndRecord(rows)
	if err != nil {
		return err
	}

	if resolveJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Rows: %d  resolved: %d  unresolved: %d\n", len(rows), report.Resolved, report.Unresolved)
	fmt.Printf("Assignment records: %d created, %d incremented\n", report.RecordsCreated, report.RecordsIncremented)
	for i, outcome := range report.Outcomes {
		if !outcome.Resolved {
			fmt.Printf("  skipped row %d: %s\n", i+1, outcome.Reason)
		}
	}
	return nil
}
