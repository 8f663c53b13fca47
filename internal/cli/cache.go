package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"teachmatch/internal/adapter/store"
)

var (
	cacheClearCourseID string
	cacheClearKind     string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the recommendation and embedding caches",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recommendation cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached recommendations",
	Long: `Drop cached recommendation lists. Without flags every course's cache is
cleared; with --course only that course's list is dropped.`,
	RunE: runCacheClear,
}

var cacheClearEmbeddingsCmd = &cobra.Command{
	Use:   "clear-embeddings",
	Short: "Drop cached embedding vectors",
	Long: `Drop cached embedding vectors so they are recomputed on the next
recommendation. --kind restricts the sweep to "instructor" or "course"
entries.`,
	RunE: runCacheClearEmbeddings,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheClearEmbeddingsCmd)
	cacheClearCmd.Flags().StringVarP(&cacheClearCourseID, "course", "c", "", "clear only this course's cache")
	cacheClearEmbeddingsCmd.Flags().StringVar(&cacheClearKind, "kind", "", `restrict to "instructor" or "course" embeddings`)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.CacheStats()
	if err != nil {
		return err
	}

	fmt.Printf("Cached entries:  %d\n", stats.TotalEntries)
	fmt.Printf("Courses cached:  %d\n", stats.CoursesWithCache)
	if stats.TotalEntries > 0 {
		fmt.Printf("Oldest entry:    %s (%s ago)\n", stats.OldestTimestamp.Format(time.RFC3339), time.Since(stats.OldestTimestamp).Round(time.Minute))
		fmt.Printf("Newest entry:    %s (%s ago)\n", stats.NewestTimestamp.Format(time.RFC3339), time.Since(stats.NewestTimestamp).Round(time.Minute))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := st.ClearRecommendations(cacheClearCourseID)
	if err != nil {
		return err
	}
	if cacheClearCourseID != "" {
		fmt.Printf("Removed %d cached entries for course %s\n", removed, cacheClearCourseID)
	} else {
		fmt.Printf("Removed %d cached entries\n", removed)
	}
	return nil
}

func runCacheClearEmbeddings(cmd *cobra.Command, args []string) error {
	switch cacheClearKind {
	case "", "instructor", "course":
	default:
		return fmt.Errorf("invalid --kind %q (want \"instructor\" or \"course\")", cacheClearKind)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := store.NewEmbeddingCache(st, log).Clear(cacheClearKind)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d cached embeddings\n", removed)
	return nil
}
