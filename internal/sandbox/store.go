package sandbox

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// SessionsDirName is the app-dir subdirectory holding session records.
const SessionsDirName = "sessions"

const recordExt = ".json"

// Store persists session records as one JSON file per session.
type Store struct {
	dir string
	fs  system.FileSystem
}

// NewStore returns a store rooted at <appDir>/sessions.
func NewStore(appDir string, fsys system.FileSystem) *Store {
	if fsys == nil {
		fsys = system.DefaultFS()
	}
	return &Store{dir: filepath.Join(appDir, SessionsDirName), fs: fsys}
}

// Dir returns the records directory.
func (s *Store) Dir() string {
	return s.dir
}

// path returns the record file for id, rejecting ids that would
// escape the records directory.
func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", errors.ValidationError(fmt.Sprintf("invalid session id %q", id))
	}
	return securejoin.SecureJoin(s.dir, id+recordExt)
}

// Save writes rec atomically.
func (s *Store) Save(rec *Record) error {
	path, err := s.path(rec.ID)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return errors.IOError("failed to create sessions directory", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.IOError("failed to marshal session record", err)
	}

	tmp := path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.IOError("failed to write session record", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.IOError("failed to write session record", err)
	}
	logging.Debug("saved session record", "id", rec.ID, "path", path)
	return nil
}

// Load reads the record for id.
func (s *Store) Load(id string) (*Record, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.SessionNotFound(id)
		}
		return nil, errors.IOError("failed to read session record", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.IOError("failed to parse session record "+path, err)
	}
	return &rec, nil
}

// Delete removes the record for id. A missing record is not an error.
func (s *Store) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.IOError("failed to remove session record", err)
	}
	return nil
}

// List returns every readable record, oldest first. Unreadable files are
// skipped.
func (s *Store) List() ([]*Record, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.IOError("failed to read sessions directory", err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != recordExt {
			continue
		}
		rec, err := s.Load(strings.TrimSuffix(entry.Name(), recordExt))
		if err != nil {
			logging.Debug("skipping session record", "file", entry.Name(), "error", err)
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// Resolve finds a record by exact id, unique id prefix, or exact title.
func (s *Store) Resolve(identifier string) (*Record, error) {
	if identifier == "" {
		return nil, errors.ValidationError("session identifier is required")
	}
	rec, err := s.Load(identifier)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, errors.ErrSessionNotFound), isInvalidID(err):
	default:
		return nil, err
	}

	records, err := s.List()
	if err != nil {
		return nil, err
	}

	var byPrefix, byTitle []*Record
	for _, rec := range records {
		if strings.HasPrefix(rec.ID, identifier) {
			byPrefix = append(byPrefix, rec)
		}
		if rec.Title == identifier {
			byTitle = append(byTitle, rec)
		}
	}

	for _, matches := range [][]*Record{byPrefix, byTitle} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return nil, errors.ValidationError(fmt.Sprintf("%q matches %d sessions", identifier, len(matches)))
		}
	}
	return nil, errors.SessionNotFound(identifier)
}

// isInvalidID reports whether err came from path validation, which for
// Resolve only means the identifier is a title rather than an id.
func isInvalidID(err error) bool {
	var aoeErr *errors.AoeError
	return errors.As(err, &aoeErr) && aoeErr.Code == errors.ExitGeneralError
}
