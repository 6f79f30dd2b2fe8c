// Package answers persists mission answers in a semicolon-delimited flat
// file: one row of (mission id, mission title, answer) per mission item,
// answers keyed by mission id and positional by item index.
package answers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/prognt/TapSwapBot/internal/model"
)

// utf8BOM is written at the start of the file so spreadsheet tools open it
// as UTF-8; Load tolerates its presence or absence.
const utf8BOM = "\xef\xbb\xbf"

// Store reads and writes the local answer file.
type Store struct {
	path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load parses the answer file into a map from mission id to the ordered
// answers for that mission's items. A missing file or malformed row is
// returned as an error; callers may choose to recover to an empty set.
func (s *Store) Load() (map[string][]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte(utf8BOM))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = ';'
	reader.FieldsPerRecord = 3

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing answer file %s: %w", s.path, err)
	}

	ret := make(map[string][]string)
	for _, row := range rows {
		ret[row[0]] = append(ret[row[0]], row[2])
	}
	return ret, nil
}

// Save rewrites the answer file for the given missions, preserving
// previously stored answers by item index and leaving blank cells for items
// without one. Missions sort by start time ascending; undated missions
// share a single captured "now" so their order is stable within one call.
// The file is written to a temp file and renamed into place so a crash
// mid-write cannot truncate existing answers.
func (s *Store) Save(missions []model.Mission) error {
	stored, err := s.Load()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		stored = make(map[string][]string)
	}

	sorted := slices.Clone(missions)
	now := time.Now()
	slices.SortStableFunc(sorted, func(a, b model.Mission) int {
		return a.StartOr(now).Compare(b.StartOr(now))
	})

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp answer file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("writing answer file: %w", err)
	}

	writer := csv.NewWriter(tmp)
	writer.Comma = ';'
	for _, mission := range sorted {
		codes := stored[mission.ID]
		for i := range mission.Items {
			answer := ""
			if i < len(codes) {
				answer = codes[i]
			}
			if err := writer.Write([]string{mission.ID, mission.Title, answer}); err != nil {
				return fmt.Errorf("writing answer file: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("writing answer file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp answer file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing answer file: %w", err)
	}
	return nil
}
