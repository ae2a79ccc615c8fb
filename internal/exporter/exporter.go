// Package exporter writes insight results to CSV files for use outside the
// API, primarily from the report CLI.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"chainsight/internal/analytics"
	"chainsight/internal/dataset"
	"chainsight/internal/forecast"
	"chainsight/internal/services"
)

const periodFormat = "2006-01"

// CSVWriter writes CSV exports.
type CSVWriter struct {
	logger *slog.Logger

	// BOMPrefix prepends a UTF-8 BOM so Excel opens the file correctly.
	BOMPrefix bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteForecast writes the reconciled forecast together with its actuals.
// Actual rows carry empty bound columns.
func (w *CSVWriter) WriteForecast(dst io.Writer, result *services.ForecastResult) error {
	cw := csv.NewWriter(dst)
	if err := cw.Write([]string{"period", "kind", "value", "lower", "upper"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range result.Actuals {
		if err := cw.Write(actualRow(p)); err != nil {
			return fmt.Errorf("failed to write actual row: %w", err)
		}
	}
	for _, p := range result.Forecast {
		if err := cw.Write(forecastRow(p)); err != nil {
			return fmt.Errorf("failed to write forecast row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDataset writes a dataset as-is, header first.
func (w *CSVWriter) WriteDataset(dst io.Writer, ds *dataset.Dataset) error {
	if ds == nil {
		return fmt.Errorf("no dataset to export")
	}
	cw := csv.NewWriter(dst)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < ds.Len(); i++ {
		row := make([]string, len(ds.Columns))
		for j := range row {
			row[j] = ds.Cell(i, j)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteForecastFile writes the forecast export to a file, creating parent
// directories as needed.
func (w *CSVWriter) WriteForecastFile(path string, result *services.ForecastResult) error {
	f, err := w.create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.WriteForecast(f, result); err != nil {
		return err
	}
	w.logger.Info("forecast export written",
		slog.String("path", path),
		slog.Int("actuals", len(result.Actuals)),
		slog.Int("forecast", len(result.Forecast)))
	return nil
}

func (w *CSVWriter) create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if w.BOMPrefix {
		if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	return f, nil
}

func actualRow(p analytics.Point) []string {
	return []string{p.Period.Format(periodFormat), "actual", formatValue(p.Value), "", ""}
}

func forecastRow(p forecast.Point) []string {
	return []string{
		p.Period.Format(periodFormat),
		"forecast",
		formatValue(p.Estimate),
		formatValue(p.Lower),
		formatValue(p.Upper),
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
