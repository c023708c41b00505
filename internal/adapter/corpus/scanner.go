package corpus

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"musicrec/internal/domain"
)

// Scanner builds a corpus from an audio tree laid out as <root>/<label>/<file>.
type Scanner struct {
	includes []string
	excludes []string
}

func NewScanner(includes, excludes []string) *Scanner {
	if len(includes) == 0 {
		includes = []string{"*/*.wav"}
	}
	return &Scanner{
		includes: includes,
		excludes: excludes,
	}
}

// Scan walks root in lexical order. The label is the first path element and
// ids run 1..n in walk order.
func (s *Scanner) Scan(root string) ([]domain.Track, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var tracks []domain.Track
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && s.shouldExclude(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.shouldInclude(rel) || s.shouldExclude(rel) {
			return nil
		}

		label, _, ok := strings.Cut(rel, "/")
		if !ok {
			return nil
		}
		tracks = append(tracks, domain.Track{
			ID:       int64(len(tracks) + 1),
			Filename: d.Name(),
			Genre:    domain.Genre(label),
			FilePath: rel,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tracks, nil
}

func (s *Scanner) shouldInclude(path string) bool {
	return matchAny(s.includes, path)
}

func (s *Scanner) shouldExclude(path string) bool {
	return matchAny(s.excludes, path)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
