// Package localfile stores each submission as one JSON document under a
// data directory. It is the sink of record: the listing endpoint and the
// admin page read from it.
package localfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/formvcm/postulaciones/internal/core"
	"github.com/formvcm/postulaciones/internal/logging"
)

const recordExt = ".json"

// Store writes submissions to <dir>/<id>.json.
//
// Records are written to a temporary file in the same directory and then
// hard-linked into place, so a reader sees either the full record or no
// record at all, and an existing record is never overwritten.
type Store struct {
	dir    string
	onSkip func(name string, err error)
}

// Option configures a Store.
type Option func(*Store)

// WithSkipHook is called for each record ListAll cannot read.
func WithSkipHook(fn func(name string, err error)) Option {
	return func(s *Store) { s.onSkip = fn }
}

// New creates a store rooted at dir. The directory is created on first write.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements core.Sink.
func (s *Store) Name() string { return core.SinkLocal }

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file a submission id is stored at.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}

// Save implements core.Sink.
func (s *Store) Save(ctx context.Context, sub *core.Submission) (core.Ack, error) {
	if err := ctx.Err(); err != nil {
		return core.Ack{}, err
	}
	if !core.IDPattern.MatchString(sub.ID) {
		return core.Ack{}, fmt.Errorf("invalid submission id %q", sub.ID)
	}

	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return core.Ack{}, fmt.Errorf("encode record: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return core.Ack{}, fmt.Errorf("create data dir: %w", err)
	}

	final := s.Path(sub.ID)
	tmp, err := s.writeTemp(sub.ID, data)
	if err != nil {
		return core.Ack{}, err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return core.Ack{}, fmt.Errorf("%s: %w", final, core.ErrRecordExists)
		}
		return core.Ack{}, fmt.Errorf("publish record: %w", err)
	}

	logging.FromContext(ctx).Debug("record written", "path", final, "bytes", len(data))
	return core.Ack{Sink: core.SinkLocal, Location: final}, nil
}

func (s *Store) writeTemp(id string, data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+id+"."+uuid.NewString()+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}

// ListAll implements core.SubmissionReader. Records are returned in file
// name order, which is submission order. Unreadable records are skipped
// and logged. A missing directory yields an empty list.
func (s *Store) ListAll(ctx context.Context) ([]core.Submission, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []core.Submission{}, nil
		}
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	logger := logging.FromContext(ctx)
	out := make([]core.Submission, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("list submissions: %w", err)
		}

		sub, err := s.read(name)
		if err != nil {
			logger.Warn("skipping unreadable record", "file", name, "error", err)
			if s.onSkip != nil {
				s.onSkip(name, err)
			}
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) read(name string) (core.Submission, error) {
	var sub core.Submission
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return sub, err
	}
	if err := json.Unmarshal(data, &sub); err != nil {
		return sub, fmt.Errorf("decode %s: %w", name, err)
	}
	return sub, nil
}
