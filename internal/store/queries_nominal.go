package store

import (
	"context"
	"fmt"
	"time"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// ActiveServiceIDs resolves the set of service_ids active on date per
// spec.md §4.2 step 1: calendar rules whose weekday flag for date is 1
// and whose range contains date, plus exception_type=1 additions for
// date, minus exception_type=2 removals for date.
func (g *Gateway) ActiveServiceIDs(ctx context.Context, date time.Time) ([]string, error) {
	dateStr := date.Format("2006-01-02")
	weekdayCol := weekdayColumn(date.Weekday())

	rows, err := g.Reader.QueryContext(ctx, fmt.Sprintf(`
		SELECT service_id FROM calendar_rules
		WHERE %s = 1 AND start_date <= ? AND end_date >= ?
	`, weekdayCol), dateStr, dateStr)
	if err != nil {
		return nil, fmt.Errorf("query calendar rules: %w", err)
	}
	active := make(map[string]bool)
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan calendar rule: %w", err)
		}
		active[sid] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	addRows, err := g.Reader.QueryContext(ctx,
		`SELECT service_id FROM calendar_exceptions WHERE date = ? AND exception_type = 1`, dateStr)
	if err != nil {
		return nil, fmt.Errorf("query calendar exception additions: %w", err)
	}
	for addRows.Next() {
		var sid string
		if err := addRows.Scan(&sid); err != nil {
			addRows.Close()
			return nil, err
		}
		active[sid] = true
	}
	addRows.Close()

	remRows, err := g.Reader.QueryContext(ctx,
		`SELECT service_id FROM calendar_exceptions WHERE date = ? AND exception_type = 2`, dateStr)
	if err != nil {
		return nil, fmt.Errorf("query calendar exception removals: %w", err)
	}
	for remRows.Next() {
		var sid string
		if err := remRows.Scan(&sid); err != nil {
			remRows.Close()
			return nil, err
		}
		delete(active, sid)
	}
	remRows.Close()

	ids := make([]string, 0, len(active))
	for sid := range active {
		ids = append(ids, sid)
	}
	return ids, nil
}

func weekdayColumn(day time.Weekday) string {
	switch day {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// NominalStopTime is a trip's stop joined to its sequence, scoped to the
// active service_ids resolved by ActiveServiceIDs.
type NominalStopTime struct {
	TripID        string
	RouteID       string
	StopID        string
	StopSequence  int
	DepartureTime string
}

// FetchNominalOperationDayTrips returns every (trip, route, stop_time)
// row for the given active service_ids, ordered by trip_id then
// stop_sequence, per spec.md §4.2 step 2. When full is false, only each
// trip's first stop_time (stop_sequence 1) is returned; the Nominal
// Index passes true.
func (g *Gateway) FetchNominalOperationDayTrips(ctx context.Context, serviceIDs []string, full bool) ([]NominalStopTime, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}

	query := g.sb.Select("t.trip_id", "t.route_id", "st.stop_id", "st.stop_sequence", "st.departure_time").
		From("trips t").
		Join("stop_times st ON st.trip_id = t.trip_id").
		Where(inClause("t.service_id", len(serviceIDs)), toArgs(serviceIDs)...).
		OrderBy("t.trip_id", "st.stop_sequence")
	if !full {
		query = query.Where("st.stop_sequence = 1")
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build nominal trips query: %w", err)
	}

	rows, err := g.Reader.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query nominal trips: %w", err)
	}
	defer rows.Close()

	var out []NominalStopTime
	for rows.Next() {
		var r NominalStopTime
		if err := rows.Scan(&r.TripID, &r.RouteID, &r.StopID, &r.StopSequence, &r.DepartureTime); err != nil {
			return nil, fmt.Errorf("scan nominal trip row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchNominalStops returns every known nominal stop_id.
func (g *Gateway) FetchNominalStops(ctx context.Context) ([]string, error) {
	return g.fetchIDColumn(ctx, "stop_id", "stops")
}

// FetchNominalRoutes returns every known nominal route_id.
func (g *Gateway) FetchNominalRoutes(ctx context.Context) ([]string, error) {
	return g.fetchIDColumn(ctx, "route_id", "routes")
}

func (g *Gateway) fetchIDColumn(ctx context.Context, column, table string) ([]string, error) {
	rows, err := g.Reader.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", column, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// FetchAllStops returns every nominal stop row, for internal/staticload's
// export subcommand.
func (g *Gateway) FetchAllStops(ctx context.Context) ([]gtfsmodel.Stop, error) {
	rows, err := g.Reader.QueryContext(ctx, `
		SELECT stop_id, stop_name, stop_lat, stop_lon, location_type, parent_station,
		       wheelchair_boarding
		FROM stops`)
	if err != nil {
		return nil, fmt.Errorf("query stops: %w", err)
	}
	defer rows.Close()

	var out []gtfsmodel.Stop
	for rows.Next() {
		var s gtfsmodel.Stop
		if err := rows.Scan(&s.StopID, &s.StopName, &s.StopLat, &s.StopLon, &s.LocationType,
			&s.ParentStation, &s.WheelchairBoarding); err != nil {
			return nil, fmt.Errorf("scan stop: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FetchAllRoutes returns every nominal route row, for internal/staticload's
// export subcommand.
func (g *Gateway) FetchAllRoutes(ctx context.Context) ([]gtfsmodel.Route, error) {
	rows, err := g.Reader.QueryContext(ctx, `
		SELECT route_id, agency_id, route_short_name, route_long_name, route_type,
		       route_color, route_text_color
		FROM routes`)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()

	var out []gtfsmodel.Route
	for rows.Next() {
		var r gtfsmodel.Route
		if err := rows.Scan(&r.RouteID, &r.AgencyID, &r.RouteShortName, &r.RouteLongName,
			&r.RouteType, &r.RouteColor, &r.RouteTextColor); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func inClause(column string, n int) string {
	placeholders := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return fmt.Sprintf("%s IN (%s)", column, placeholders)
}

func toArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
