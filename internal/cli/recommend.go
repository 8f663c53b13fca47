package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"teachmatch/internal/adapter/explain"
	"teachmatch/internal/adapter/store"
	"teachmatch/internal/usecase"
)

var (
	recommendCourseID string
	recommendTopK     int
	recommendNoCache  bool
	recommendJSON     bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank instructors for a course",
	Long: `Rank instructors for a course by blending historical teaching experience
with semantic profile similarity. Each entry carries matched-attribute
evidence and per-feature score attributions.

Examples:
  teachmatch recommend -c 3f2a...            # Ranked list for a course
  teachmatch recommend -c 3f2a... -k 5       # Top 5 only
  teachmatch recommend -c 3f2a... --no-cache # Force recomputation`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVarP(&recommendCourseID, "course", "c", "", "course ID (required)")
	recommendCmd.Flags().IntVarP(&recommendTopK, "top-k", "k", 0, "number of results (default from config)")
	recommendCmd.Flags().BoolVar(&recommendNoCache, "no-cache", false, "bypass and refresh the recommendation cache")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "output as JSON")
	recommendCmd.MarkFlagRequired("course")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}

	attributor := explain.NewBooster(explain.Config{}, log)
	embCache := store.NewEmbeddingCache(st, log)
	uc := usecase.NewRecommendUseCase(st, embCache, embedder, attributor, log)

	topK := cfg.Scoring.TopK
	if recommendTopK > 0 {
		topK = recommendTopK
	}

	set, err := uc.Recommend(recommendCourseID, usecase.RecommendOptions{
		TopK:             topK,
		HistoryWeight:    cfg.Scoring.HistoryWeight,
		SemanticWeight:   cfg.Scoring.SemanticWeight,
		VeteranThreshold: cfg.Scoring.VeteranThreshold,
		UseCache:         cfg.Cache.Enabled && !recommendNoCache,
		MaxCacheAge:      time.Duration(cfg.Cache.MaxAgeDays) * 24 * time.Hour,
	})
	if err != nil {
		return err
	}

	if recommendJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	}

	if len(set.Items) == 0 {
		fmt.Println("No recommendations. Is the course in the catalog?")
		return nil
	}

	source := "computed"
	if set.FromCache {
		source = "cached"
	}
	fmt.Printf("Recommendations for course %s (%s):\n\n", set.CourseID, source)

	for _, r := range set.Items {
		fmt.Printf("%2d. %s  [combined %.2f | history %.2f | semantic %.2f]\n",
			r.Rank, r.InstructorName, r.CombinedScore, r.HistoricalScore, r.SemanticScore)

		if ev := formatEvidence(r.Evidence.Domains, r.Evidence.Languages, r.Evidence.Tools, r.Evidence.Methodologies, r.Evidence.Topics); ev != "" {
			fmt.Printf("    evidence: %s\n", ev)
		}
		if len(r.Attribution) > 0 {
			fmt.Printf("    drivers:  %s\n", formatAttribution(r.Attribution))
		}
	}
	return nil
}

func formatEvidence(groups ...[]string) string {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}
	return strings.Join(all, ", ")
}

// formatAttribution lists features by absolute contribution, largest first.
func formatAttribution(attribution map[string]float64) string {
	type kv struct {
		name  string
		value float64
	}
	items := make([]kv, 0, len(attribution))
	for k, v := range attribution {
		items = append(items, kv{k, v})
	}
	sort.Slice(items, func(i, j int) bool {
		ai, aj := items[i].value, items[j].value
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		if ai != aj {
			return ai > aj
		}
		return items[i].name < items[j].name
	})
	parts := make([]string, 0, 3)
	for i, it := range items {
		if i == 3 {
			break
		}
		parts = append(parts, fmt.Sprintf("%s %+.2f", it.name, it.value))
	}
	return strings.Join(parts, ", ")
}
