package fs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DocumentKind classifies what a discovered file feeds: instructor CVs,
// course syllabi, or teaching schedules.
type DocumentKind string

const (
	KindCV       DocumentKind = "cv"
	KindSyllabus DocumentKind = "syllabus"
	KindSchedule DocumentKind = "schedule"
)

// Walker discovers ingestable documents under a root using doublestar
// include/exclude patterns, classifying each by its parent directory.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Document is one discovered file.
type Document struct {
	Path    string
	Kind    DocumentKind
	ModTime int64
	Size    int64
}

func (w *Walker) Walk(root string) ([]Document, error) {
	var docs []Document

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if info.IsDir() {
			if w.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.shouldInclude(relPath) || w.shouldExclude(relPath) {
			return nil
		}

		docs = append(docs, Document{
			Path:    path,
			Kind:    classify(relPath),
			ModTime: info.ModTime().Unix(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (w *Walker) shouldInclude(relPath string) bool {
	for _, pattern := range w.includes {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(relPath string) bool {
	for _, pattern := range w.excludes {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// classify infers the document kind from the closest recognizable path
// segment; unknown layouts default to CV, the most common document type.
func classify(relPath string) DocumentKind {
	lower := strings.ToLower(relPath)
	for _, segment := range strings.Split(filepath.ToSlash(lower), "/") {
		switch {
		case strings.Contains(segment, "schedule"), strings.Contains(segment, "horario"):
			return KindSchedule
		case strings.Contains(segment, "syllab"), strings.Contains(segment, "silabo"), strings.Contains(segment, "curso"):
			return KindSyllabus
		}
	}
	return KindCV
}

// ReadFile reads a discovered document's raw bytes.
func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
