// Package staticload is the out-of-scope static GTFS schedule loader:
// the `load`/`remove`/`drop`/`export` CLI subcommands that
// populate the nominal tables the reconciliation engine reads from.
// Reconciliation (the in-scope part of the system) never imports this
// package — the nominal schedule is read-only from its perspective.
// Kept intentionally minimal, grounded on the predecessor's
// gtfs-static/{parser,importer} shape but decoding CSV via gocarina/gocsv
// instead of a hand-rolled encoding/csv reader.
package staticload

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/transitfusion/gtfsrealtime/internal/logging"
	"github.com/transitfusion/gtfsrealtime/internal/store"
	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// Loader owns the store gateway the subcommands operate on.
type Loader struct {
	gateway *store.Gateway
	log     logging.Logger
}

// New builds a Loader.
func New(gateway *store.Gateway, log logging.Logger) *Loader {
	return &Loader{gateway: gateway, log: log}
}

// Load reads a GTFS static feed (a zip of CSV files) and bulk-inserts
// every supported table into the nominal schema.
func (l *Loader) Load(ctx context.Context, zipPath string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open gtfs zip %s: %w", zipPath, err)
	}
	defer reader.Close()

	files := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		files[f.Name] = f
	}

	var stops []gtfsmodel.Stop
	if err := decodeCSV(files, "stops.txt", &stops); err != nil {
		return err
	}
	if err := l.gateway.InsertStops(ctx, stops); err != nil {
		return err
	}
	l.log.Info("loaded stops", "count", len(stops))

	var routes []gtfsmodel.Route
	if err := decodeCSV(files, "routes.txt", &routes); err != nil {
		return err
	}
	if err := l.gateway.InsertRoutes(ctx, routes); err != nil {
		return err
	}
	l.log.Info("loaded routes", "count", len(routes))

	var trips []gtfsmodel.Trip
	if err := decodeCSV(files, "trips.txt", &trips); err != nil {
		return err
	}
	if err := l.gateway.InsertTrips(ctx, trips); err != nil {
		return err
	}
	l.log.Info("loaded trips", "count", len(trips))

	var stopTimes []gtfsmodel.StopTime
	if err := decodeCSV(files, "stop_times.txt", &stopTimes); err != nil {
		return err
	}
	if err := l.gateway.InsertStopTimes(ctx, stopTimes); err != nil {
		return err
	}
	l.log.Info("loaded stop times", "count", len(stopTimes))

	// GTFS calendar dates are YYYYMMDD; the store compares them as
	// YYYY-MM-DD (see store.ActiveServiceIDs).
	isoDate := func(d string) string {
		if len(d) != 8 {
			return d
		}
		return d[:4] + "-" + d[4:6] + "-" + d[6:]
	}

	var rules []gtfsmodel.CalendarRule
	if err := decodeCSV(files, "calendar.txt", &rules); err != nil {
		return err
	}
	for i := range rules {
		rules[i].StartDate = isoDate(rules[i].StartDate)
		rules[i].EndDate = isoDate(rules[i].EndDate)
	}
	if len(rules) > 0 {
		if err := l.gateway.InsertCalendarRules(ctx, rules); err != nil {
			return err
		}
	}
	l.log.Info("loaded calendar rules", "count", len(rules))

	var exceptions []gtfsmodel.CalendarException
	if err := decodeCSV(files, "calendar_dates.txt", &exceptions); err != nil {
		return err
	}
	for i := range exceptions {
		exceptions[i].Date = isoDate(exceptions[i].Date)
	}
	if len(exceptions) > 0 {
		if err := l.gateway.InsertCalendarExceptions(ctx, exceptions); err != nil {
			return err
		}
	}
	l.log.Info("loaded calendar exceptions", "count", len(exceptions))

	return nil
}

// decodeCSV unmarshals one member of the zip into out via gocsv. A
// missing file, required or optional, is not an error: out is left
// empty and the table is skipped.
func decodeCSV(files map[string]*zip.File, name string, out interface{}) error {
	f, ok := files[name]
	if !ok {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	if err := gocsv.Unmarshal(rc, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Remove deletes every nominal row belonging to one service_id.
func (l *Loader) Remove(ctx context.Context, serviceID string) error {
	if err := l.gateway.RemoveService(ctx, serviceID); err != nil {
		return err
	}
	l.log.Info("removed service", "service_id", serviceID)
	return nil
}

// Drop truncates the entire nominal schema.
func (l *Loader) Drop(ctx context.Context) error {
	if err := l.gateway.DropNominalData(ctx); err != nil {
		return err
	}
	l.log.Info("dropped nominal schedule")
	return nil
}

// Show returns a row-count summary of the nominal tables; it prints
// nothing itself.
func (l *Loader) Show(ctx context.Context) (store.NominalCounts, error) {
	return l.gateway.CountNominal(ctx)
}

// Export writes the nominal stops and routes tables back out as
// stops.txt and routes.txt under dir. Trips, stop times and calendar
// tables are not exported, and no ZIP archive is built.
func (l *Loader) Export(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	stops, err := l.gateway.FetchAllStops(ctx)
	if err != nil {
		return err
	}
	if err := exportCSV(dir, "stops.txt", stops); err != nil {
		return err
	}

	routes, err := l.gateway.FetchAllRoutes(ctx)
	if err != nil {
		return err
	}
	if err := exportCSV(dir, "routes.txt", routes); err != nil {
		return err
	}

	l.log.Info("exported nominal schedule", "dir", dir)
	return nil
}

func exportCSV(dir, name string, rows interface{}) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return nil
}
