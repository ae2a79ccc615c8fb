package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "chainsight/internal/errors"
)

// Load outcomes reported to the observer and structured logs.
const (
	LoadCacheHit   = "cache_hit"
	LoadOK         = "loaded"
	LoadMissing    = "missing"
	LoadMalformed  = "malformed"
	LoadUnreadable = "unreadable"
)

// LoadObserver receives the outcome of each load attempt. Implementations
// must be safe for concurrent use.
type LoadObserver interface {
	ObserveLoad(ctx context.Context, path, outcome string)
}

// Loader reads optional tabular artifacts from disk. Absence - whether the
// file is missing or its content is not tabular - is returned as a nil
// dataset, never as an error.
type Loader struct {
	logger   *slog.Logger
	cache    *Cache
	observer LoadObserver
}

// NewLoader creates a loader. The cache and observer are optional; a nil
// cache disables memoization.
func NewLoader(logger *slog.Logger, cache *Cache, observer LoadObserver) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger.With(slog.String("component", "artifact_loader")),
		cache:    cache,
		observer: observer,
	}
}

// Load reads the artifact at path into a dataset. It returns nil when the
// path does not exist or the content cannot be parsed as tabular data; the
// two cases are distinguished in logs and observer outcomes.
func (l *Loader) Load(ctx context.Context, path string) *Dataset {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		l.logger.InfoContext(ctx, "artifact missing",
			slog.String("path", path),
			slog.String("reason", LoadMissing),
			slog.String("error", apperrors.NewMissingArtifactError(path).Error()))
		l.observe(ctx, path, LoadMissing)
		return nil
	}

	if l.cache != nil {
		if ds, ok := l.cache.Get(path, info.ModTime()); ok {
			l.observe(ctx, path, LoadCacheHit)
			return ds
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// The file exists but cannot be read (permissions, races). That is
		// a storage problem, not an absent artifact.
		l.logger.WarnContext(ctx, "artifact unreadable",
			slog.String("path", path),
			slog.String("reason", LoadUnreadable),
			slog.String("error", apperrors.NewStorageError("artifact unreadable", err).Error()))
		l.observe(ctx, path, LoadUnreadable)
		return nil
	}

	ds, err := parse(path, data)
	if err != nil {
		l.logger.WarnContext(ctx, "artifact malformed",
			slog.String("path", path),
			slog.String("reason", LoadMalformed),
			slog.String("error", apperrors.NewMalformedArtifactError(path, err).Error()))
		l.observe(ctx, path, LoadMalformed)
		return nil
	}

	if l.cache != nil {
		l.cache.Put(path, info.ModTime(), ds)
	}

	l.logger.DebugContext(ctx, "artifact loaded",
		slog.String("path", path),
		slog.Int("columns", len(ds.Columns)),
		slog.Int("rows", len(ds.Rows)))
	l.observe(ctx, path, LoadOK)
	return ds
}

func (l *Loader) observe(ctx context.Context, path, outcome string) {
	if l.observer != nil {
		l.observer.ObserveLoad(ctx, path, outcome)
	}
}

// parse dispatches on file extension: Excel workbooks go through excelize,
// everything else is treated as CSV.
func parse(path string, data []byte) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return parseExcel(data)
	default:
		return parseCSV(data)
	}
}

func parseCSV(data []byte) (*Dataset, error) {
	// Binary content is never a CSV, but would happily parse as a single
	// garbage column. Reject it up front.
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, errNotTabular
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errNotTabular
	}

	header := records[0]
	rows := records[1:]
	return New(header, rows), nil
}

func parseExcel(data []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNotTabular
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errNotTabular
	}
	return New(records[0], records[1:]), nil
}

var errNotTabular = errors.New("content is not tabular")
