// Command insight-report prints a plain-text summary of the configured
// artifacts and writes the reconciled monthly forecast as CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"chainsight/internal/config"
	"chainsight/internal/exporter"
	"chainsight/internal/forecast"
	"chainsight/internal/infrastructure"
	"chainsight/internal/services"
)

func main() {
	configFile := flag.String("config", "", "config file path (defaults to CHAINSIGHT_CONFIG or config.yaml)")
	horizon := flag.Int("horizon", forecast.DefaultHorizon, "forecast horizon in months")
	out := flag.String("out", "", "write the forecast CSV to this path instead of stdout")
	flag.Parse()

	if err := run(*configFile, *horizon, *out); err != nil {
		fmt.Fprintln(os.Stderr, "insight-report:", err)
		os.Exit(1)
	}
}

func run(configFile string, horizon int, out string) error {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	svc := services.NewInsightsService(cfg.Artifacts, logger, nil)
	ctx := context.Background()

	printArtifacts(svc.Artifacts(ctx))
	printOverview(ctx, svc)

	result, err := svc.Forecast(ctx, horizon)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoDataAvailable):
			fmt.Println("\nForecast: no sales history available")
			return nil
		case errors.Is(err, forecast.ErrInsufficientData):
			fmt.Println("\nForecast: insufficient history for a baseline")
			return nil
		}
		return err
	}

	fmt.Printf("\nForecast (%s, horizon %d):\n", result.Source, result.Horizon)
	writer := exporter.NewCSVWriter(logger)
	if out == "" {
		return writer.WriteForecast(os.Stdout, result)
	}
	if err := writer.WriteForecastFile(out, result); err != nil {
		return err
	}
	fmt.Printf("  wrote %s\n", out)
	return nil
}

func printArtifacts(statuses []services.ArtifactStatus) {
	fmt.Println("Artifacts:")
	for _, st := range statuses {
		state := "missing"
		if st.Exists {
			state = fmt.Sprintf("%d bytes, %s", st.Size, st.ModifiedAt)
		}
		fmt.Printf("  %-18s %s (%s)\n", st.Name, st.Path, state)
	}
}

func printOverview(ctx context.Context, svc *services.InsightsService) {
	ov, err := svc.Overview(ctx)
	if err != nil {
		fmt.Println("\nOverview: segmentation artifact not available")
		return
	}

	fmt.Println("\nOverview:")
	if ov.Customers != nil {
		fmt.Printf("  customers:    %d\n", *ov.Customers)
	}
	if ov.TotalSales != nil {
		fmt.Printf("  total sales:  %.2f\n", *ov.TotalSales)
	}
	if ov.TotalOrders != nil {
		fmt.Printf("  total orders: %d\n", *ov.TotalOrders)
	}
	for _, share := range ov.SegmentShare {
		fmt.Printf("  segment %-12s %d customers\n", share.Segment, share.Customers)
	}
}
