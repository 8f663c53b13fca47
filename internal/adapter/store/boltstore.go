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

var (
	bucketInstructors = []byte("instructors")
	bucketCourses     = []byte("courses")
	bucketAssignments = []byte("assignments")
	bucketRecCache    = []byte("rec_cache")
	bucketEmbeddings  = []byte("embeddings")
)

// keySep joins composite keys. IDs are UUIDs and periods are "2024-10"
// shaped, so '|' never collides.
const keySep = "|"

// BoltStore implements port.CatalogStore on a single bbolt file. bbolt's
// Update transactions give the all-or-nothing semantics the recommendation
// cache replace and the assignment upsert batch require.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketInstructors, bucketCourses, bucketAssignments, bucketRecCache, bucketEmbeddings}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

type instructorMeta struct {
	Name          string               `json:"name"`
	Email         string               `json:"email,omitempty"`
	Degree        string               `json:"degree,omitempty"`
	Attributes    domain.AttributeSet  `json:"attributes"`
	Biography     string               `json:"biography,omitempty"`
	EmbeddingHash string               `json:"embedding_hash,omitempty"`
	CreatedAt     int64                `json:"created_at"`
	UpdatedAt     int64                `json:"updated_at"`
}

type courseMeta struct {
	Name          string              `json:"name"`
	Code          string              `json:"code,omitempty"`
	Cycle         int                 `json:"cycle,omitempty"`
	Attributes    domain.AttributeSet `json:"attributes"`
	Description   string              `json:"description,omitempty"`
	EmbeddingHash string              `json:"embedding_hash,omitempty"`
	CreatedAt     int64               `json:"created_at"`
	UpdatedAt     int64               `json:"updated_at"`
}

type assignmentMeta struct {
	Count    int   `json:"count"`
	LastSeen int64 `json:"last_seen"`
}

func (s *BoltStore) PutInstructor(p domain.InstructorProfile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putInstructor(tx, p)
	})
}

func putInstructor(tx *bbolt.Tx, p domain.InstructorProfile) error {
	meta := instructorMeta{
		Name:          p.Name,
		Email:         p.Email,
		Degree:        p.Degree,
		Attributes:    p.Attributes,
		Biography:     p.Biography,
		EmbeddingHash: p.EmbeddingHash,
		CreatedAt:     p.CreatedAt.Unix(),
		UpdatedAt:     p.UpdatedAt.Unix(),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketInstructors).Put([]byte(p.ID), data)
}

func (s *BoltStore) GetInstructor(id string) (domain.InstructorProfile, error) {
	var p domain.InstructorProfile
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		p, err = getInstructor(tx, id)
		return err
	})
	return p, err
}

func getInstructor(tx *bbolt.Tx, id string) (domain.InstructorProfile, error) {
	data := tx.Bucket(bucketInstructors).Get([]byte(id))
	if data == nil {
		return domain.InstructorProfile{}, fmt.Errorf("instructor %s: %w", id, domain.ErrNotFound)
	}
	var meta instructorMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.InstructorProfile{}, err
	}
	return domain.InstructorProfile{
		ID:            id,
		Name:          meta.Name,
		Email:         meta.Email,
		Degree:        meta.Degree,
		Attributes:    meta.Attributes,
		Biography:     meta.Biography,
		EmbeddingHash: meta.EmbeddingHash,
		CreatedAt:     time.Unix(meta.CreatedAt, 0),
		UpdatedAt:     time.Unix(meta.UpdatedAt, 0),
	}, nil
}

func (s *BoltStore) ListInstructors() ([]domain.InstructorProfile, error) {
	var out []domain.InstructorProfile
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketInstructors).ForEach(func(k, v []byte) error {
			var meta instructorMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			out = append(out, domain.InstructorProfile{
				ID:            string(k),
				Name:          meta.Name,
				Email:         meta.Email,
				Degree:        meta.Degree,
				Attributes:    meta.Attributes,
				Biography:     meta.Biography,
				EmbeddingHash: meta.EmbeddingHash,
				CreatedAt:     time.Unix(meta.CreatedAt, 0),
				UpdatedAt:     time.Unix(meta.UpdatedAt, 0),
			})
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) DeleteInstructor(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketInstructors).Delete([]byte(id))
	})
}

func (s *BoltStore) PutCourse(c domain.CourseProfile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := courseMeta{
			Name:          c.Name,
			Code:          c.Code,
			Cycle:         c.Cycle,
			Attributes:    c.Attributes,
			Description:   c.Description,
			EmbeddingHash: c.EmbeddingHash,
			CreatedAt:     c.CreatedAt.Unix(),
			UpdatedAt:     c.UpdatedAt.Unix(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketCourses).Put([]byte(c.ID), data)
	})
}

func (s *BoltStore) GetCourse(id string) (domain.CourseProfile, error) {
	var c domain.CourseProfile
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCourses).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("course %s: %w", id, domain.ErrNotFound)
		}
		var meta courseMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		c = domain.CourseProfile{
			ID:            id,
			Name:          meta.Name,
			Code:          meta.Code,
			Cycle:         meta.Cycle,
			Attributes:    meta.Attributes,
			Description:   meta.Description,
			EmbeddingHash: meta.EmbeddingHash,
			CreatedAt:     time.Unix(meta.CreatedAt, 0),
			UpdatedAt:     time.Unix(meta.UpdatedAt, 0),
		}
		return nil
	})
	return c, err
}

func (s *BoltStore) ListCourses() ([]domain.CourseProfile, error) {
	var out []domain.CourseProfile
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCourses).ForEach(func(k, v []byte) error {
			var meta courseMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			out = append(out, domain.CourseProfile{
				ID:            string(k),
				Name:          meta.Name,
				Code:          meta.Code,
				Cycle:         meta.Cycle,
				Attributes:    meta.Attributes,
				Description:   meta.Description,
				EmbeddingHash: meta.EmbeddingHash,
				CreatedAt:     time.Unix(meta.CreatedAt, 0),
				UpdatedAt:     time.Unix(meta.UpdatedAt, 0),
			})
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) DeleteCourse(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCourses).Delete([]byte(id))
	})
}

// assignmentKey is courseID|instructorID|period, prefix-scannable by course.
func assignmentKey(courseID, instructorID, period string) []byte {
	return []byte(courseID + keySep + instructorID + keySep + period)
}

// ApplyAssignments upserts aggregated increments and appends biography
// notes in one transaction. A record per (instructor, course, period)
// either grows its count or is created with the increment as initial count;
// a note is appended only when the biography does not already contain it.
func (s *BoltStore) ApplyAssignments(incs []domain.AssignmentIncrement, notes []domain.BiographyNote) (int, int, error) {
	created, incremented := 0, 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAssignments)
		now := time.Now().Unix()

		for _, inc := range incs {
			if inc.Delta <= 0 {
				continue
			}
			key := assignmentKey(inc.CourseID, inc.InstructorID, inc.Period)
			var meta assignmentMeta
			if data := b.Get(key); data != nil {
				if err := json.Unmarshal(data, &meta); err != nil {
					return err
				}
				meta.Count += inc.Delta
				incremented++
			} else {
				meta.Count = inc.Delta
				created++
			}
			meta.LastSeen = now
			data, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
		}

		for _, note := range notes {
			p, err := getInstructor(tx, note.InstructorID)
			if err != nil {
				return err
			}
			if strings.Contains(p.Biography, note.Note) {
				continue
			}
			if p.Biography != "" {
				p.Biography += "\n"
			}
			p.Biography += "- " + note.Note
			p.UpdatedAt = time.Now()
			if err := putInstructor(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, incremented, nil
}

func (s *BoltStore) GetAssignmentsByCourse(courseID string) ([]domain.AssignmentRecord, error) {
	var out []domain.AssignmentRecord
	prefix := []byte(courseID + keySep)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketAssignments).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			rec, err := parseAssignment(k, v)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) GetAssignmentsByInstructor(instructorID string) ([]domain.AssignmentRecord, error) {
	var out []domain.AssignmentRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAssignments).ForEach(func(k, v []byte) error {
			rec, err := parseAssignment(k, v)
			if err != nil {
				return err
			}
			if rec.InstructorID == instructorID {
				out = append(out, rec)
			}
			return nil
		})
	})
	return out, err
}

func parseAssignment(k, v []byte) (domain.AssignmentRecord, error) {
	parts := strings.SplitN(string(k), keySep, 3)
	if len(parts) != 3 {
		return domain.AssignmentRecord{}, fmt.Errorf("malformed assignment key %q", k)
	}
	var meta assignmentMeta
	if err := json.Unmarshal(v, &meta); err != nil {
		return domain.AssignmentRecord{}, err
	}
	return domain.AssignmentRecord{
		CourseID:     parts[0],
		InstructorID: parts[1],
		Period:       parts[2],
		Count:        meta.Count,
		LastSeen:     time.Unix(meta.LastSeen, 0),
	}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
