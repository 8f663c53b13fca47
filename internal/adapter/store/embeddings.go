package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"teachmatch/internal/domain"
)

func (s *BoltStore) PutEmbedding(key string, rec domain.EmbeddingRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketEmbeddings).Put([]byte(key), data)
	})
}

func (s *BoltStore) GetEmbedding(key string) (domain.EmbeddingRecord, error) {
	var rec domain.EmbeddingRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("embedding %s: %w", key, domain.ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

func (s *BoltStore) ClearEmbeddings(prefix string) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for _, k := range collectKeys(b, []byte(prefix)) {
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
