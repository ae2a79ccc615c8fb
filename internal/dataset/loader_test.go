package dataset

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// recordingObserver collects load outcomes per path.
type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveLoad(_ context.Context, _ string, outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orders.csv", "order date,sales,region\n2024-01-05,100,East\n2024-01-20,50,West\n")

	loader := NewLoader(nil, nil, nil)
	ds := loader.Load(context.Background(), path)

	require.NotNil(t, ds)
	assert.Equal(t, []string{"order date", "sales", "region"}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "East", ds.Cell(0, 2))
	assert.Equal(t, "50", ds.Cell(1, 1))
}

func TestLoadRaggedCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ragged.csv", "a,b,c\n1,2,3\n4,5\n")

	loader := NewLoader(nil, nil, nil)
	ds := loader.Load(context.Background(), path)

	require.NotNil(t, ds, "ragged rows are tolerated")
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, "", ds.Cell(1, 2))
}

func TestLoadMissingFile(t *testing.T) {
	obs := &recordingObserver{}
	loader := NewLoader(nil, nil, obs)

	ds := loader.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	assert.Nil(t, ds)
	assert.Equal(t, []string{LoadMissing}, obs.outcomes)
}

func TestLoadDirectoryIsMissing(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(nil, nil, nil)

	assert.Nil(t, loader.Load(context.Background(), dir))
}

func TestLoadBinaryGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.csv")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01, 0x02}, 0o644))

	obs := &recordingObserver{}
	loader := NewLoader(nil, nil, obs)

	assert.Nil(t, loader.Load(context.Background(), path))
	assert.Equal(t, []string{LoadMalformed}, obs.outcomes)
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.csv", "")

	loader := NewLoader(nil, nil, nil)
	assert.Nil(t, loader.Load(context.Background(), path))
}

func TestLoadExcel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segments.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"customer_id", "segment"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"C-1", "A"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"C-2", "B"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	loader := NewLoader(nil, nil, nil)
	ds := loader.Load(context.Background(), path)

	require.NotNil(t, ds)
	assert.Equal(t, []string{"customer_id", "segment"}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "B", ds.Cell(1, 1))
}

func TestLoadCorruptExcel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.xlsx", "this is not a workbook")

	obs := &recordingObserver{}
	loader := NewLoader(nil, nil, obs)

	assert.Nil(t, loader.Load(context.Background(), path))
	assert.Equal(t, []string{LoadMalformed}, obs.outcomes)
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "locked.csv", "a,b\n1,2\n")
	require.NoError(t, os.Chmod(path, 0o000))

	obs := &recordingObserver{}
	loader := NewLoader(nil, nil, obs)

	assert.Nil(t, loader.Load(context.Background(), path))
	assert.Equal(t, []string{LoadUnreadable}, obs.outcomes,
		"a present but unreadable file is not the same as a missing one")
}

func TestLoadLogsTypedReasons(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	dir := t.TempDir()
	loader := NewLoader(logger, nil, nil)
	ctx := context.Background()

	loader.Load(ctx, filepath.Join(dir, "absent.csv"))
	assert.Contains(t, buf.String(), "MISSING_ARTIFACT")

	buf.Reset()
	path := filepath.Join(dir, "binary.csv")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02}, 0o644))
	loader.Load(ctx, path)
	assert.Contains(t, buf.String(), "MALFORMED_ARTIFACT")
}

func TestLoadUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cached.csv", "a\n1\n")

	cache := NewCache()
	obs := &recordingObserver{}
	loader := NewLoader(nil, cache, obs)
	ctx := context.Background()

	first := loader.Load(ctx, path)
	require.NotNil(t, first)

	second := loader.Load(ctx, path)
	assert.Same(t, first, second, "unchanged file must be served from cache")
	assert.Equal(t, []string{LoadOK, LoadCacheHit}, obs.outcomes)

	cache.InvalidateAll()
	third := loader.Load(ctx, path)
	require.NotNil(t, third)
	assert.Equal(t, []string{LoadOK, LoadCacheHit, LoadOK}, obs.outcomes)
}
