package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lisaguthrie/sipdashboard/internal/fileutil"
	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/normalize"
)

const (
	// SchoolsName is the structured output file.
	SchoolsName = "schools.json"
	// FlattenedName is the flattened retrieval output file.
	FlattenedName = "goals.txt"
)

// Artifact describes one committed file.
type Artifact struct {
	Path      string `json:"path"`
	Bytes     int    `json:"bytes"`
	Digest    string `json:"digest"`
	Unchanged bool   `json:"unchanged"`
}

// Report lists what a commit wrote.
type Report struct {
	Schools   Artifact  `json:"schools"`
	Flattened Artifact  `json:"flattened"`
	Cache     *Artifact `json:"cache,omitempty"`
}

// Writer commits artifacts into one output directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter returns a writer for dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logging.NewComponentLogger(logger, "output")}
}

// SchoolsPath returns the schools.json path.
func (w *Writer) SchoolsPath() string {
	return filepath.Join(w.dir, SchoolsName)
}

// FlattenedPath returns the goals.txt path.
func (w *Writer) FlattenedPath() string {
	return filepath.Join(w.dir, FlattenedName)
}

// Commit renders every artifact, then writes them one by one. A nil cache
// skips the snapshot.
func (w *Writer) Commit(ctx context.Context, schools []goals.School, cache *normalize.Cache) (Report, error) {
	logger := logging.WithContext(ctx, w.logger)
	structured, err := EncodeSchools(schools)
	if err != nil {
		return Report{}, err
	}
	flattened := Flatten(schools)

	var report Report
	if report.Schools, err = w.write(w.SchoolsPath(), structured); err != nil {
		return report, err
	}
	if report.Flattened, err = w.write(w.FlattenedPath(), flattened); err != nil {
		return report, err
	}
	if cache != nil && cache.Path() != "" {
		before, _ := fileutil.Digest(cache.Path())
		if err := cache.Save(); err != nil {
			return report, fmt.Errorf("save normalization cache: %w", err)
		}
		after, err := fileutil.Digest(cache.Path())
		if err != nil {
			return report, fmt.Errorf("digest normalization cache: %w", err)
		}
		report.Cache = &Artifact{Path: cache.Path(), Digest: after, Unchanged: before == after}
		if info, err := os.Stat(cache.Path()); err == nil {
			report.Cache.Bytes = int(info.Size())
		}
	}

	logger.Info("outputs committed",
		logging.String("schools", report.Schools.Path),
		logging.Bool("schools_unchanged", report.Schools.Unchanged),
		logging.String("flattened", report.Flattened.Path),
		logging.Int("schools_count", len(schools)),
	)
	return report, nil
}

func (w *Writer) write(path string, data []byte) (Artifact, error) {
	previous, err := fileutil.Digest(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("digest %s: %w", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	digest := fileutil.DigestBytes(data)
	return Artifact{Path: path, Bytes: len(data), Digest: digest, Unchanged: previous == digest}, nil
}
