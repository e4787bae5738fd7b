package store

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

// ViewState persists the expanded node tokens of each workspace.
type ViewState interface {
	LoadExpanded(workspace string) ([]string, error)
	SaveExpanded(workspace string, tokens []string) error
}

// OpenViewState returns a ViewState stored under basePath.
func OpenViewState(basePath string) (ViewState, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("store: state path required")
	}
	return &viewState{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      64 * 1024,
	}), basePath: basePath}, nil
}

type viewState struct {
	d        *diskv.Diskv
	basePath string
}

type expandedRecord struct {
	Workspace string    `json:"workspace"`
	Expanded  []string  `json:"expanded"`
	Saved     time.Time `json:"saved"`
}

func (s *viewState) LoadExpanded(workspace string) ([]string, error) {
	data, err := s.d.Read(toKey(workspace))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read view state: %w", err)
	}
	var rec expandedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("store: decode view state: %w", err)
	}
	return rec.Expanded, nil
}

func (s *viewState) SaveExpanded(workspace string, tokens []string) error {
	key := toKey(workspace)
	if len(tokens) == 0 {
		if err := s.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("store: erase view state: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(expandedRecord{
		Workspace: workspace,
		Expanded:  tokens,
		Saved:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := s.d.Write(key, data); err != nil {
		return fmt.Errorf("store: write view state: %w", err)
	}
	return nil
}

const expandedBucket = "expanded"

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toKey makes `expanded-<digest of the cleaned workspace path>`.
func toKey(workspace string) string {
	sum := md5.Sum([]byte(filepath.Clean(workspace)))
	return fmt.Sprintf("%s-%x", expandedBucket, sum[:])
}

// ReadOnly wraps a ViewState so saves are dropped. Commands that expand
// nodes for one-off output use it to leave the saved expansion alone.
func ReadOnly(vs ViewState) ViewState {
	return readOnly{vs}
}

type readOnly struct {
	ViewState
}

func (readOnly) SaveExpanded(string, []string) error { return nil }
