package store

import (
	"context"
	"fmt"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// These writers back internal/staticload's load/remove/drop subcommands.
// Reconciliation itself never calls them — the nominal schedule is
// read-only from the matcher's perspective (spec.md §3).

// InsertStops bulk-inserts Stop rows within a single transaction.
func (g *Gateway) InsertStops(ctx context.Context, rows []gtfsmodel.Stop) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, s := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stops (stop_id, stop_name, stop_lat, stop_lon, location_type,
				parent_station, wheelchair_boarding)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.StopID, s.StopName, s.StopLat, s.StopLon, s.LocationType, s.ParentStation,
			s.WheelchairBoarding); err != nil {
			return fmt.Errorf("insert stop %s: %w", s.StopID, err)
		}
	}
	return tx.Commit()
}

// InsertRoutes bulk-inserts Route rows.
func (g *Gateway) InsertRoutes(ctx context.Context, rows []gtfsmodel.Route) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO routes (route_id, agency_id, route_short_name, route_long_name,
				route_type, route_color, route_text_color)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.RouteID, r.AgencyID, r.RouteShortName, r.RouteLongName, r.RouteType,
			r.RouteColor, r.RouteTextColor); err != nil {
			return fmt.Errorf("insert route %s: %w", r.RouteID, err)
		}
	}
	return tx.Commit()
}

// InsertTrips bulk-inserts Trip rows.
func (g *Gateway) InsertTrips(ctx context.Context, rows []gtfsmodel.Trip) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, t := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trips (trip_id, route_id, service_id, trip_headsign, direction_id)
			VALUES (?, ?, ?, ?, ?)`,
			t.TripID, t.RouteID, t.ServiceID, t.TripHeadsign, t.DirectionID); err != nil {
			return fmt.Errorf("insert trip %s: %w", t.TripID, err)
		}
	}
	return tx.Commit()
}

// InsertStopTimes bulk-inserts StopTime rows.
func (g *Gateway) InsertStopTimes(ctx context.Context, rows []gtfsmodel.StopTime) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, st := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stop_times (trip_id, stop_id, stop_sequence, arrival_time, departure_time)
			VALUES (?, ?, ?, ?, ?)`,
			st.TripID, st.StopID, st.StopSequence, st.ArrivalTime, st.DepartureTime); err != nil {
			return fmt.Errorf("insert stop time %s/%d: %w", st.TripID, st.StopSequence, err)
		}
	}
	return tx.Commit()
}

// InsertCalendarRules bulk-inserts CalendarRule rows.
func (g *Gateway) InsertCalendarRules(ctx context.Context, rows []gtfsmodel.CalendarRule) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, c := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO calendar_rules (service_id, monday, tuesday, wednesday, thursday,
				friday, saturday, sunday, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ServiceID, c.Monday, c.Tuesday, c.Wednesday, c.Thursday, c.Friday, c.Saturday,
			c.Sunday, c.StartDate, c.EndDate); err != nil {
			return fmt.Errorf("insert calendar rule %s: %w", c.ServiceID, err)
		}
	}
	return tx.Commit()
}

// InsertCalendarExceptions bulk-inserts CalendarException rows.
func (g *Gateway) InsertCalendarExceptions(ctx context.Context, rows []gtfsmodel.CalendarException) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, e := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO calendar_exceptions (service_id, date, exception_type)
			VALUES (?, ?, ?)`,
			e.ServiceID, e.Date, e.ExceptionType); err != nil {
			return fmt.Errorf("insert calendar exception %s/%s: %w", e.ServiceID, e.Date, err)
		}
	}
	return tx.Commit()
}

// RemoveService deletes every nominal row belonging to one service_id:
// its trips, their stop_times, and the calendar rule/exceptions. Routes
// and stops are left in place since other services may reference them.
// Cascading deletes across the rest of the schema are explicitly out of
// scope (spec.md's Non-goals).
func (g *Gateway) RemoveService(ctx context.Context, serviceID string) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM stop_times WHERE trip_id IN (SELECT trip_id FROM trips WHERE service_id = ?)`,
		serviceID); err != nil {
		return fmt.Errorf("remove stop times for service %s: %w", serviceID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE service_id = ?`, serviceID); err != nil {
		return fmt.Errorf("remove trips for service %s: %w", serviceID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_exceptions WHERE service_id = ?`, serviceID); err != nil {
		return fmt.Errorf("remove calendar exceptions for service %s: %w", serviceID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_rules WHERE service_id = ?`, serviceID); err != nil {
		return fmt.Errorf("remove calendar rule for service %s: %w", serviceID, err)
	}
	return tx.Commit()
}

// DropNominalData truncates every nominal table. Realtime tables are
// untouched — schema definition/drop is otherwise out of scope.
func (g *Gateway) DropNominalData(ctx context.Context) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{
		"stop_times", "calendar_exceptions", "calendar_rules", "trips", "routes", "stops",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// NominalCounts summarizes row counts per nominal table for the `show`
// subcommand.
type NominalCounts struct {
	Stops     int
	Routes    int
	Trips     int
	StopTimes int
}

// CountNominal reports the current row counts of the nominal tables.
func (g *Gateway) CountNominal(ctx context.Context) (NominalCounts, error) {
	var c NominalCounts
	queries := map[string]*int{
		"SELECT COUNT(*) FROM stops":      &c.Stops,
		"SELECT COUNT(*) FROM routes":     &c.Routes,
		"SELECT COUNT(*) FROM trips":      &c.Trips,
		"SELECT COUNT(*) FROM stop_times": &c.StopTimes,
	}
	for q, dst := range queries {
		if err := g.Reader.QueryRowContext(ctx, q).Scan(dst); err != nil {
			return c, fmt.Errorf("count: %w", err)
		}
	}
	return c, nil
}
