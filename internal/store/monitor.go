package store

import (
	"context"
	"fmt"
	"time"
)

// MonitorRow is one row of the /monitor view, per spec.md §4.4's monitor
// query shape.
type MonitorRow struct {
	OperationDay       string
	AgencyID           string
	RouteID            string
	RouteShortName     string
	TripID             string
	TripHeadsign       string
	DirectionID        int
	StartStopID        string
	StartStopName      string
	StartTime          string
	RealtimeAvailable  bool
	RealtimeLastUpdate *int64
}

// FetchRealtimeOperationDayMonitorTrips joins Trip, Route, the
// first-stop StopTime, Stop, and realtime_trip_updates (left join) for
// the active service_ids of date, ordered by first-stop departure_time.
func (g *Gateway) FetchRealtimeOperationDayMonitorTrips(ctx context.Context, date time.Time) ([]MonitorRow, error) {
	serviceIDs, err := g.ActiveServiceIDs(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("resolve active service ids: %w", err)
	}
	if len(serviceIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT r.agency_id, t.route_id, r.route_short_name, t.trip_id, t.trip_headsign,
		       t.direction_id, st.stop_id, s.stop_name, st.departure_time,
		       ru.trip_update_id IS NOT NULL AS realtime_available,
		       ru.last_updated_timestamp
		FROM trips t
		JOIN routes r ON r.route_id = t.route_id
		JOIN stop_times st ON st.trip_id = t.trip_id AND st.stop_sequence = 1
		JOIN stops s ON s.stop_id = st.stop_id
		LEFT JOIN realtime_trip_updates ru ON ru.trip_id = t.trip_id
		WHERE %s
		ORDER BY st.departure_time
	`, inClause("t.service_id", len(serviceIDs)))

	rows, err := g.Reader.QueryContext(ctx, query, toArgs(serviceIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query monitor trips: %w", err)
	}
	defer rows.Close()

	operationDay := date.Format("20060102")
	var out []MonitorRow
	for rows.Next() {
		row := MonitorRow{OperationDay: operationDay}
		if err := rows.Scan(&row.AgencyID, &row.RouteID, &row.RouteShortName, &row.TripID,
			&row.TripHeadsign, &row.DirectionID, &row.StartStopID, &row.StartStopName,
			&row.StartTime, &row.RealtimeAvailable, &row.RealtimeLastUpdate); err != nil {
			return nil, fmt.Errorf("scan monitor row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
