package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog"

	"teachmatch/internal/domain"
	"teachmatch/internal/port"
)

// previewChars bounds the stored text preview kept next to each cached
// vector for inspection.
const previewChars = 150

// EmbeddingCache avoids recomputing embeddings for unchanged profile text.
// Entries are addressed by entity identity and validated by a content hash
// of the rendered text. The cache is best-effort: a failing store degrades
// to recomputation, it never blocks the caller. A failing embed function is
// fatal and propagated, since there is no recommendation without embeddings.
type EmbeddingCache struct {
	store port.CatalogStore
	log   zerolog.Logger
}

func NewEmbeddingCache(store port.CatalogStore, log zerolog.Logger) *EmbeddingCache {
	return &EmbeddingCache{
		store: store,
		log:   log.With().Str("component", "embedding_cache").Logger(),
	}
}

// ContentHash digests rendered profile text; a changed digest means the
// cached vector is stale.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// InstructorKey and CourseKey address cache entries by entity identity.
func InstructorKey(id string) string { return "instructor/" + id }
func CourseKey(id string) string     { return "course/" + id }

// GetOrCreate returns the embedding for the given rendered text. lastHash
// is the entity's stored hash pointer; when it matches the current content
// hash and a cached vector exists, embed is not invoked. Otherwise embed
// runs, the result is persisted under key, and the new hash is returned so
// the caller can queue the entity's hash-pointer update for commit.
func (c *EmbeddingCache) GetOrCreate(key, text, lastHash string, embed func(string) ([]float32, error)) ([]float32, string, error) {
	hash := ContentHash(text)

	if lastHash == hash {
		rec, err := c.store.GetEmbedding(key)
		if err == nil && rec.Hash == hash && len(rec.Vector) > 0 {
			return rec.Vector, hash, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			c.log.Warn().Err(err).Str("key", key).Msg("embedding cache read failed, recomputing")
		}
	}

	vector, err := embed(text)
	if err != nil {
		return nil, "", err
	}

	preview := truncatePreview(text)
	rec := domain.EmbeddingRecord{Vector: vector, Hash: hash, TextPreview: preview}
	if err := c.store.PutEmbedding(key, rec); err != nil {
		// Best effort: next call recomputes.
		c.log.Warn().Err(err).Str("key", key).Msg("embedding cache write failed")
	}

	return vector, hash, nil
}

// truncatePreview caps the preview at previewChars runes. Counting runes
// rather than bytes keeps accented profile text from being cut mid-sequence.
func truncatePreview(text string) string {
	if len(text) <= previewChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= previewChars {
		return text
	}
	return string(runes[:previewChars])
}

// Clear drops cached vectors: "instructor", "course", or "" for everything.
// Returns the number of entries removed.
func (c *EmbeddingCache) Clear(kind string) (int, error) {
	prefix := ""
	switch kind {
	case "instructor", "course":
		prefix = kind + "/"
	}
	return c.store.ClearEmbeddings(prefix)
}
