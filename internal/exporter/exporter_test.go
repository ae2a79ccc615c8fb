package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/internal/analytics"
	"chainsight/internal/dataset"
	"chainsight/internal/forecast"
	"chainsight/internal/services"
)

func sampleResult() *services.ForecastResult {
	jun := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	jul := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	return &services.ForecastResult{
		Source:  forecast.SourceFallback,
		Horizon: 1,
		Actuals: []analytics.Point{{Period: jun, Value: 90}},
		Forecast: []forecast.Point{
			{Period: jul, Estimate: 90, Lower: 85.5, Upper: 94.5},
		},
	}
}

func TestWriteForecast(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(nil)

	require.NoError(t, w.WriteForecast(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "period,kind,value,lower,upper", lines[0])
	assert.Equal(t, "2024-06,actual,90,,", lines[1])
	assert.Equal(t, "2024-07,forecast,90,85.5,94.5", lines[2])
}

func TestWriteDataset(t *testing.T) {
	ds := dataset.New(
		[]string{"customer_id", "segment"},
		[][]string{{"C-1", "A"}, {"C-2"}},
	)

	var buf bytes.Buffer
	w := NewCSVWriter(nil)
	require.NoError(t, w.WriteDataset(&buf, ds))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "customer_id,segment", lines[0])
	assert.Equal(t, "C-2,", lines[2], "ragged rows are padded")
}

func TestWriteDatasetNil(t *testing.T) {
	w := NewCSVWriter(nil)
	assert.Error(t, w.WriteDataset(&bytes.Buffer{}, nil))
}

func TestWriteForecastFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "forecast.csv")

	w := NewCSVWriter(nil)
	require.NoError(t, w.WriteForecastFile(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-07,forecast")
}

func TestWriteForecastFileBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.csv")

	w := NewCSVWriter(nil)
	w.BOMPrefix = true
	require.NoError(t, w.WriteForecastFile(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
}
