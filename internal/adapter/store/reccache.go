package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"teachmatch/internal/domain"
)

// AlgorithmVersion tags persisted ranked lists; entries stamped with an
// older version are treated as misses on read, so bumping it invalidates
// every cached list.
const AlgorithmVersion = "blend_v2_veteran"

// recCacheKey is courseID|rank with a zero-padded rank so a prefix cursor
// yields entries in rank order.
func recCacheKey(courseID string, rank int) []byte {
	return []byte(fmt.Sprintf("%s%s%04d", courseID, keySep, rank))
}

// GetRecommendations returns the cached ranked list for a course in rank
// order. A hit requires entries stamped with the current AlgorithmVersion,
// younger than maxAge, and at least minCount of them; a smaller cached list
// is a miss, since a previous run may have asked for fewer results. Misses
// return an empty slice and no error.
func (s *BoltStore) GetRecommendations(courseID string, maxAge time.Duration, minCount int) ([]domain.CachedRecommendation, error) {
	var out []domain.CachedRecommendation
	prefix := []byte(courseID + keySep)
	cutoff := time.Now().Add(-maxAge)

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRecCache).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var entry domain.CachedRecommendation
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			if entry.AlgorithmVersion != AlgorithmVersion {
				out = nil
				return nil
			}
			if maxAge > 0 && entry.GeneratedAt.Before(cutoff) {
				out = nil
				return nil
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) < minCount {
		return nil, nil
	}
	return out, nil
}

// ReplaceRecommendations swaps the ranked list for a course in one
// transaction: every previous entry is deleted, then the new list is
// inserted with dense 1..N ranks. Any failure rolls the transaction back
// and surfaces ErrCacheWrite; the previous cache content stays
// authoritative.
func (s *BoltStore) ReplaceRecommendations(courseID string, entries []domain.CachedRecommendation, algorithmVersion string) error {
	now := time.Now()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecCache)

		if err := deletePrefix(b, []byte(courseID+keySep)); err != nil {
			return err
		}

		for i, entry := range entries {
			entry.CourseID = courseID
			entry.Rank = i + 1
			entry.AlgorithmVersion = algorithmVersion
			entry.GeneratedAt = now
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := b.Put(recCacheKey(courseID, entry.Rank), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheWrite, err)
	}
	return nil
}

// ClearRecommendations removes cached entries for one course, or all
// courses when courseID is empty. Returns the number of entries removed.
func (s *BoltStore) ClearRecommendations(courseID string) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecCache)
		var prefix []byte
		if courseID != "" {
			prefix = []byte(courseID + keySep)
		}
		keys := collectKeys(b, prefix)
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// collectKeys gathers the keys under a prefix ("" for all) so deletion never
// races the cursor it iterates with.
func collectKeys(b *bbolt.Bucket, prefix []byte) [][]byte {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	return keys
}

func deletePrefix(b *bbolt.Bucket, prefix []byte) error {
	for _, k := range collectKeys(b, prefix) {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// CacheStats scans the recommendation cache and summarizes it.
func (s *BoltStore) CacheStats() (domain.CacheStats, error) {
	stats := domain.CacheStats{}
	courses := make(map[string]struct{})

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecCache).ForEach(func(k, v []byte) error {
			var entry domain.CachedRecommendation
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			stats.TotalEntries++
			if id, _, ok := strings.Cut(string(k), keySep); ok {
				courses[id] = struct{}{}
			}
			if stats.OldestTimestamp.IsZero() || entry.GeneratedAt.Before(stats.OldestTimestamp) {
				stats.OldestTimestamp = entry.GeneratedAt
			}
			if entry.GeneratedAt.After(stats.NewestTimestamp) {
				stats.NewestTimestamp = entry.GeneratedAt
			}
			return nil
		})
	})
	if err != nil {
		return domain.CacheStats{}, err
	}
	stats.CoursesWithCache = len(courses)
	return stats, nil
}
