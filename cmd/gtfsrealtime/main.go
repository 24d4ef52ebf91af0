// Command gtfsrealtime is the GTFS-realtime reconciliation engine's
// entrypoint: a cobra CLI exposing the collaborator's static-schedule
// subcommands (load/remove/drop/export/sql/show) alongside `realtime`,
// which runs the Lifecycle (C11) that owns every other in-scope
// component. Grounded on cmd/ptvtracker/main.go's signal-handling and
// sync.WaitGroup shutdown shape, generalized from a flat main() into a
// cobra command tree the way steveyegge-beads structures its CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/transitfusion/gtfsrealtime/internal/config"
	"github.com/transitfusion/gtfsrealtime/internal/flush"
	"github.com/transitfusion/gtfsrealtime/internal/httpapi"
	"github.com/transitfusion/gtfsrealtime/internal/intake"
	"github.com/transitfusion/gtfsrealtime/internal/logging"
	"github.com/transitfusion/gtfsrealtime/internal/nominal"
	"github.com/transitfusion/gtfsrealtime/internal/queue"
	"github.com/transitfusion/gtfsrealtime/internal/respcache"
	"github.com/transitfusion/gtfsrealtime/internal/staticload"
	"github.com/transitfusion/gtfsrealtime/internal/store"
)

const version = "1.0.0"

var configPath string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "gtfsrealtime",
		Short: "GTFS-realtime reconciliation engine",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the engine's YAML config file")

	root.AddCommand(
		versionCmd(),
		loadCmd(),
		removeCmd(),
		dropCmd(),
		exportCmd(),
		sqlCmd(),
		showCmd(),
		realtimeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the engine version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// newLogger builds the console+file logger shared by every subcommand,
// per cfg.Logging.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		logging.ConsoleWriter(),
		logging.FileWriter(cfg.Logging.FilePath, 10, 5, 30, true),
	)
}

func loadConfigOrDie() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	return cfg
}

func openGatewayOrDie(cfg *config.Config, log logging.Logger) *store.Gateway {
	gateway, err := store.Open(cfg.Store.DSN, cfg.Store.WriterDSN, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	return gateway
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <gtfs.zip>",
		Short: "load a static GTFS feed into the nominal schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			log := newLogger(cfg)
			gateway := openGatewayOrDie(cfg, log)
			defer gateway.Close()

			return staticload.New(gateway, log).Load(cmd.Context(), args[0])
		},
	}
}

func removeCmd() *cobra.Command {
	var services []string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "remove one or more services from the nominal schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			log := newLogger(cfg)
			gateway := openGatewayOrDie(cfg, log)
			defer gateway.Close()

			loader := staticload.New(gateway, log)
			for _, serviceID := range services {
				if err := loader.Remove(cmd.Context(), serviceID); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&services, "service", "s", nil, "service_id to remove (repeatable)")
	return cmd
}

func dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "truncate the entire nominal schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			log := newLogger(cfg)
			gateway := openGatewayOrDie(cfg, log)
			defer gateway.Close()

			return staticload.New(gateway, log).Drop(cmd.Context())
		},
	}
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "export the nominal schedule to CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			log := newLogger(cfg)
			gateway := openGatewayOrDie(cfg, log)
			defer gateway.Close()

			return staticload.New(gateway, log).Export(cmd.Context(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", ".", "destination directory for exported CSV files")
	return cmd
}

func sqlCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "execute raw SQL statement files against the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			log := newLogger(cfg)
			gateway := openGatewayOrDie(cfg, log)
			defer gateway.Close()

			for _, path := range files {
				contents, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				for _, stmt := range strings.Split(string(contents), ";") {
					stmt = strings.TrimSpace(stmt)
					if stmt == "" {
						continue
					}
					if _, err := gateway.Writer.ExecContext(cmd.Context(), stmt); err != nil {
						return fmt.Errorf("execute statement from %s: %w", path, err)
					}
				}
				log.Info("executed sql file", "path", path)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "SQL statement file to execute (repeatable)")
	return cmd
}

func showCmd() *cobra.Command {
	var date string
	var full bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "print the nominal operation-day trips for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDie()
			log := newLogger(cfg)
			gateway := openGatewayOrDie(cfg, log)
			defer gateway.Close()

			ref, err := time.Parse("20060102", date)
			if err != nil {
				return fmt.Errorf("parse --date: %w", err)
			}

			serviceIDs, err := gateway.ActiveServiceIDs(cmd.Context(), ref)
			if err != nil {
				return err
			}
			rows, err := gateway.FetchNominalOperationDayTrips(cmd.Context(), serviceIDs, full)
			if err != nil {
				return err
			}

			fmt.Printf("found %d results\n\n", len(rows))
			for _, row := range rows {
				fmt.Printf("%s\t%s\t%s\t%d\t%s\n", row.RouteID, row.TripID, row.StopID, row.StopSequence, row.DepartureTime)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date in format YYYYMMDD to show nominal trips for")
	cmd.Flags().BoolVarP(&full, "full-trips", "f", false, "whether to select all stop times of a trip")
	cmd.MarkFlagRequired("date")
	return cmd
}

// realtimeCmd runs the Lifecycle (C11): it builds and wires every
// in-scope component and blocks until SIGINT/SIGTERM, per spec.md §4.
func realtimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "realtime",
		Short: "run the realtime reconciliation engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRealtime()
		},
	}
}

func runRealtime() error {
	cfg := loadConfigOrDie()
	log := newLogger(cfg)
	log.Info("gtfs-realtime engine starting", "version", version)

	gateway := openGatewayOrDie(cfg, log)
	defer gateway.Close()

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("unknown timezone, defaulting to UTC", "timezone", cfg.App.Timezone)
		loc = time.UTC
	}

	indexStore := &nominal.Store{}
	if err := rebuildIndex(context.Background(), gateway, indexStore, loc, log); err != nil {
		return fmt.Errorf("build initial nominal index: %w", err)
	}

	if err := gateway.ClearRealtimeData(context.Background()); err != nil {
		return fmt.Errorf("clear stale realtime data: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alertSink := logging.AlertSink(logging.NoopAlertSink{})
	if cfg.Logging.AlertURL != "" {
		alertSink = logging.NewWebhookAlertSink(cfg.Logging.AlertURL)
	}

	queues := queue.New()

	scheduler := flush.New(cfg.FlushInterval(), cfg.DataReviewWindow(), gateway, queues, log, alertSink)
	scheduler.Start(ctx)

	var in *intake.Intake
	if cfg.App.MQTTEnabled {
		in = intake.New(cfg.MQTT, cfg.App.DataReviewSecs, indexStore, queues, cfg.Matching, log)
		if err := in.Start(ctx); err != nil {
			return fmt.Errorf("start mqtt intake: %w", err)
		}
	}

	cache := respcache.New(cfg.App.CachingEnabled, map[string]time.Duration{
		"service-alerts":    cfg.Caching.TTL("service-alerts"),
		"trip-updates":      cfg.Caching.TTL("trip-updates"),
		"vehicle-positions": cfg.Caching.TTL("vehicle-positions"),
	})
	server := httpapi.New(cfg, gateway, cache, log)
	server.Start()

	go runRolloverLoop(ctx, gateway, indexStore, loc, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown error", "error", err)
	}

	cancel()
	scheduler.Stop()

	log.Info("gtfs-realtime engine stopped")
	return nil
}

// rebuildIndex builds a fresh Index for "today" in loc and publishes it.
func rebuildIndex(ctx context.Context, gateway *store.Gateway, indexStore *nominal.Store, loc *time.Location, log logging.Logger) error {
	idx, err := nominal.Build(ctx, gateway, time.Now().In(loc))
	if err != nil {
		return err
	}
	indexStore.Publish(idx)
	log.Info("nominal index published", "operation_day", idx.OperationDay)
	return nil
}

// runRolloverLoop rebuilds the Nominal Index at local midnight in loc,
// per spec.md §4.2's day-of-service rollover requirement.
func runRolloverLoop(ctx context.Context, gateway *store.Gateway, indexStore *nominal.Store, loc *time.Location, log logging.Logger) {
	for {
		now := time.Now().In(loc)
		nextMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(nextMidnight)):
			if err := rebuildIndex(ctx, gateway, indexStore, loc, log); err != nil {
				log.Error("nominal index rollover failed", "error", err)
			}
		}
	}
}
