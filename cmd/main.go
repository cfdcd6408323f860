package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fleet-manager/internal/api"
	"fleet-manager/internal/archive"
	"fleet-manager/internal/config"
	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
	"fleet-manager/internal/parser"
)

var (
	storeDriver string
	dbPath      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fleet-manager",
		Short: "Fleet Manager - vehicle registry, telemetry ingestion and fleet analytics",
		Long: `A service and CLI for managing vehicles, drivers, trips, fleets, owners and
maintenance records, ingesting vehicle telemetry with threshold alerts and
computing fleet analytics. Records live in memory, SQLite, PostgreSQL or Redis.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Record store: memory, sqlite, postgres or redis (default from STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (default from SQLITE_PATH)")

	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(vehicleCmd())
	rootCmd.AddCommand(fleetCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serverCmd starts the REST API server
func serverCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if port == "" {
				port = a.cfg.HTTPPort
			}
			server := api.NewServer(a.registries, a.telemetry, a.analyzer, a.cfg)
			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			fmt.Printf("🚀 Fleet Manager API Server\n")
			fmt.Printf("   Listening on http://localhost%s\n", srv.Addr)
			fmt.Printf("   Store: %s\n\n", a.cfg.StoreDriver)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				config.Logger().Println("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Server port (default from HTTP_PORT)")
	return cmd
}

// ingestCmd ingests telemetry data from files
func ingestCmd() *cobra.Command {
	var format string
	var validate bool
	var batchSize int

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest telemetry data from files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p := parser.NewParser(format)
			totalRecords := 0
			totalErrors := 0

			for _, file := range args {
				fmt.Printf("Processing %s...\n", file)
				start := time.Now()

				records, err := p.ParseFile(file)
				if err != nil {
					fmt.Printf("  Error: %v\n", err)
					totalErrors++
					continue
				}

				if validate {
					var errs []error
					records, errs = parser.Validate(records)
					for _, e := range errs {
						fmt.Printf("  Skipped: %v\n", e)
					}
					totalErrors += len(errs)
				}

				count, err := ingestInBatches(ctx, a, records, batchSize, nil)
				if err != nil {
					fmt.Printf("  Ingest error: %v\n", err)
					totalErrors++
				}

				elapsed := time.Since(start)
				fmt.Printf("  ✓ Stored %d of %d records in %v (%.0f records/sec)\n",
					count, len(records), elapsed, float64(count)/elapsed.Seconds())
				totalRecords += count
			}

			fmt.Printf("\nTotal: %d records ingested", totalRecords)
			if totalErrors > 0 {
				fmt.Printf(", %d errors", totalErrors)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "File format (csv, json, log)")
	cmd.Flags().BoolVarP(&validate, "validate", "v", true, "Drop invalid records instead of rejecting the whole batch")
	cmd.Flags().IntVar(&batchSize, "batch", 1000, "Records per ingestion batch")
	return cmd
}

// ingestInBatches feeds records through the ingestion service. Readings for
// unregistered vehicles are skipped by the service.
func ingestInBatches(ctx context.Context, a *app, records []models.TelemetryReading, batchSize int, progress func(done int)) (int, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	inserted := 0
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		stored, err := a.telemetry.IngestBatch(ctx, records[i:end])
		inserted += len(stored)
		if err != nil {
			return inserted, err
		}
		if progress != nil {
			progress(end)
		}
	}
	return inserted, nil
}

// queryCmd queries telemetry data
func queryCmd() *cobra.Command {
	var vin string
	var startTime string
	var endTime string
	var limit int
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query telemetry data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			q := models.TelemetryQuery{Limit: limit}
			if vin != "" {
				q.VINs = []string{vin}
			}
			if startTime != "" {
				if q.StartTime, err = models.ParseTime(startTime); err != nil {
					return fmt.Errorf("invalid start time: %w", err)
				}
			}
			if endTime != "" {
				if q.EndTime, err = models.ParseTime(endTime); err != nil {
					return fmt.Errorf("invalid end time: %w", err)
				}
			}

			start := time.Now()
			results, err := a.telemetry.Query(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("query error: %w", err)
			}
			elapsed := time.Since(start)

			switch outputFormat {
			case "json":
				return printJSON(results)
			default:
				fmt.Printf("Found %d records (query time: %v)\n\n", len(results), elapsed)
				for _, r := range results {
					fmt.Printf("[%s] Vehicle: %s | Pos: %.6f,%.6f | Speed: %.1f km/h | Engine: %s | Fuel: %.1f%% | Odo: %.1f km\n",
						r.Timestamp.Format("2006-01-02 15:04:05"),
						r.VIN, r.Latitude, r.Longitude,
						r.Speed, r.EngineStatus, r.FuelLevel, r.Odometer)
					if len(r.DiagnosticCodes) > 0 {
						fmt.Printf("     ⚠️  Diagnostics: %v\n", r.DiagnosticCodes)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&vin, "vehicle", "V", "", "Filter by VIN")
	cmd.Flags().StringVarP(&startTime, "start", "s", "", "Start time (RFC3339 or naive UTC)")
	cmd.Flags().StringVarP(&endTime, "end", "e", "", "End time (RFC3339 or naive UTC)")
	cmd.Flags().IntVarP(&limit, "limit", "l", models.MaxPageLimit, "Maximum records to return (1-100)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
	return cmd
}

// statsCmd shows dashboard statistics
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.analyzer.Dashboard(cmd.Context())
			if err != nil {
				return fmt.Errorf("error getting stats: %w", err)
			}

			fmt.Println("📊 Fleet Manager Statistics")
			fmt.Println("===========================")
			fmt.Printf("  Vehicles:            %d (%d active)\n", stats.TotalVehicles, stats.ActiveVehicles)
			fmt.Printf("  Drivers:             %d\n", stats.TotalDrivers)
			fmt.Printf("  Fleets:              %d\n", stats.TotalFleets)
			fmt.Printf("  Owners:              %d\n", stats.TotalOwners)
			fmt.Printf("  Trips:               %d\n", stats.TotalTrips)
			fmt.Printf("  Maintenance records: %d\n", stats.TotalMaintenance)
			fmt.Printf("  Alerts:              %d (%d in last 24h)\n", stats.TotalAlerts, stats.RecentAlerts)
			fmt.Printf("  Avg fuel (24h):      %.1f%%\n", stats.AvgFuel)
			fmt.Printf("  Store:               %s\n", a.cfg.StoreDriver)
			return nil
		},
	}
}

// generateCmd generates sample vehicles and telemetry
func generateCmd() *cobra.Command {
	var count int
	var vehicleCount int
	var fleetCount int
	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample vehicles and telemetry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if vehicleCount < 1 {
				return fmt.Errorf("need at least one vehicle")
			}
			if fleetCount < 1 {
				fleetCount = 1
			}
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))

			for i := 1; i <= fleetCount; i++ {
				f := models.Fleet{FleetID: fmt.Sprintf("FLT-%02d", i), Name: fmt.Sprintf("Fleet %d", i)}
				if _, err := a.registries.Fleets.Create(ctx, f); err != nil && !errors.Is(err, db.ErrAlreadyExists) {
					return fmt.Errorf("create fleet: %w", err)
				}
			}

			makes := []struct{ manufacturer, model string }{
				{"Volvo", "FH16"}, {"Scania", "R500"}, {"Ford", "Transit"}, {"Mercedes-Benz", "Sprinter"},
			}
			vins := make([]string, 0, vehicleCount)
			odometers := make(map[string]float64, vehicleCount)
			for i := 1; i <= vehicleCount; i++ {
				mk := makes[rng.Intn(len(makes))]
				v := models.Vehicle{
					VIN:                fmt.Sprintf("VIN%014d", i),
					Manufacturer:       mk.manufacturer,
					Model:              mk.model,
					FleetID:            fmt.Sprintf("FLT-%02d", 1+(i-1)%fleetCount),
					RegistrationStatus: models.StatusActive,
				}
				if _, err := a.registries.Vehicles.Create(ctx, v); err != nil && !errors.Is(err, db.ErrAlreadyExists) {
					return fmt.Errorf("create vehicle: %w", err)
				}
				vins = append(vins, v.VIN)
				odometers[v.VIN] = float64(50000 + rng.Intn(100000))
			}
			fmt.Printf("Prepared %d vehicles in %d fleets\n", vehicleCount, fleetCount)

			diagnosticCodes := []string{"", "", "", "", "", "", "", "P0420", "P0171", "P0300", "P0442"}
			statuses := []models.EngineStatus{models.EngineRunning, models.EngineRunning, models.EngineRunning, models.EngineIdle, models.EngineStopped}
			records := make([]models.TelemetryReading, 0, count)
			baseTime := time.Now().UTC().Add(-24 * time.Hour)
			step := 24 * time.Hour / time.Duration(max(count, 1))

			for i := 0; i < count; i++ {
				vin := vins[rng.Intn(len(vins))]
				status := statuses[rng.Intn(len(statuses))]
				speed := 0.0
				if status == models.EngineRunning {
					speed = rng.Float64() * 130
					odometers[vin] += speed / 60
				}
				r := models.TelemetryReading{
					VIN:          vin,
					Timestamp:    baseTime.Add(time.Duration(i) * step),
					Latitude:     28.5383 + (rng.Float64()-0.5)*0.1, // Orlando area
					Longitude:    -81.3792 + (rng.Float64()-0.5)*0.1,
					Speed:        speed,
					EngineStatus: status,
					FuelLevel:    5 + rng.Float64()*95,
					Odometer:     odometers[vin],
				}
				if code := diagnosticCodes[rng.Intn(len(diagnosticCodes))]; code != "" {
					r.DiagnosticCodes = []string{code}
				}
				records = append(records, r)
			}

			start := time.Now()
			inserted, err := ingestInBatches(ctx, a, records, 1000, func(done int) {
				fmt.Printf("\rIngested %d/%d records...", done, len(records))
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			elapsed := time.Since(start)
			fmt.Printf("\n✓ Generated %d telemetry records in %v (%.0f records/sec)\n",
				inserted, elapsed, float64(inserted)/elapsed.Seconds())

			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("error creating output file: %w", err)
				}
				defer file.Close()

				enc := json.NewEncoder(file)
				enc.SetIndent("", "  ")
				if err := enc.Encode(records); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				fmt.Printf("Data exported to %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "c", 10000, "Number of readings to generate")
	cmd.Flags().IntVarP(&vehicleCount, "vehicles", "n", 10, "Number of vehicles to create")
	cmd.Flags().IntVarP(&fleetCount, "fleets", "F", 2, "Number of fleets to spread vehicles over")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Export generated readings to a JSON file")
	return cmd
}

// vehicleCmd manages vehicles
func vehicleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Vehicle management commands",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered vehicles",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			vehicles, err := a.registries.Vehicles.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing vehicles: %w", err)
			}
			if len(vehicles) == 0 {
				fmt.Println("No vehicles found. Use 'fleet-manager generate' to create sample data.")
				return nil
			}

			fmt.Printf("%-20s %-15s %-12s %-10s %s\n", "VIN", "MANUFACTURER", "MODEL", "FLEET", "STATUS")
			for _, v := range vehicles {
				fmt.Printf("%-20s %-15s %-12s %-10s %s\n", v.VIN, v.Manufacturer, v.Model, v.FleetID, v.RegistrationStatus)
			}
			return nil
		},
	}

	summaryCmd := &cobra.Command{
		Use:   "summary [vin]",
		Short: "Show telemetry summary for a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.telemetry.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("🚗 Vehicle Summary: %s\n", summary.VIN)
			fmt.Println("================================")
			fmt.Printf("  Total Records:    %d\n", summary.TotalRecords)
			fmt.Printf("  Average Speed:    %.1f km/h\n", summary.AvgSpeed)
			fmt.Printf("  Max Speed:        %.1f km/h\n", summary.MaxSpeed)
			fmt.Printf("  Distance:         %.1f km\n", summary.TotalDistanceKM)
			fmt.Printf("  Avg Fuel Level:   %.1f%%\n", summary.AvgFuelLevel)
			return nil
		},
	}

	cmd.AddCommand(listCmd, summaryCmd)
	return cmd
}

// fleetCmd reports on fleets
func fleetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Fleet commands",
	}

	var windowHours float64
	analyticsCmd := &cobra.Command{
		Use:   "analytics [fleet_id]",
		Short: "Show trailing-window analytics for a fleet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			window := a.cfg.AnalyticsWindow()
			if windowHours > 0 {
				window = time.Duration(windowHours * float64(time.Hour))
			}
			stats, err := a.analyzer.Fleet(cmd.Context(), args[0], window)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	analyticsCmd.Flags().Float64VarP(&windowHours, "window", "w", 0, "Window in hours (default from ANALYTICS_WINDOW_HOURS)")

	cmd.AddCommand(analyticsCmd)
	return cmd
}

// exportCmd archives telemetry to Parquet and optionally uploads it
func exportCmd() *cobra.Command {
	var output string
	var vin string
	var compression string
	var upload bool
	var basePath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export telemetry to a Parquet file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := archive.Export(ctx, a.tables.Telemetry, vin, output, compression)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Wrote %d readings to %s\n", n, output)

			if !upload {
				return nil
			}
			client, err := archive.NewMinIO(a.cfg)
			if err != nil {
				return err
			}
			obj, err := client.UploadFile(ctx, basePath, output, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("✓ Uploaded to %s/%s\n", a.cfg.MinIOBucket, obj)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "telemetry.parquet", "Parquet file to write")
	cmd.Flags().StringVarP(&vin, "vehicle", "V", "", "Only export this VIN")
	cmd.Flags().StringVar(&compression, "compression", "SNAPPY", "Compression codec (SNAPPY, GZIP, ZSTD, NONE)")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload the file to MinIO after writing")
	cmd.Flags().StringVar(&basePath, "prefix", "telemetry", "Object key prefix for uploads")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
