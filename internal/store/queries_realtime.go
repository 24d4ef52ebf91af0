package store

import (
	"context"
	"fmt"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// FetchRealtimeTripUpdates returns every persisted TripUpdate with its
// StopTimeUpdate children attached, for C9's trip-updates.pbf endpoint.
func (g *Gateway) FetchRealtimeTripUpdates(ctx context.Context) ([]gtfsmodel.TripUpdate, error) {
	rows, err := g.Reader.QueryContext(ctx, `
		SELECT trip_update_id, trip_id, route_id, direction_id, start_time,
		       start_date, schedule_relationship, vehicle_id, vehicle_label,
		       timestamp, delay, last_updated_timestamp
		FROM realtime_trip_updates
	`)
	if err != nil {
		return nil, fmt.Errorf("query trip updates: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*gtfsmodel.TripUpdate)
	var order []string
	for rows.Next() {
		var tu gtfsmodel.TripUpdate
		if err := rows.Scan(&tu.TripUpdateID, &tu.TripID, &tu.RouteID, &tu.DirectionID,
			&tu.StartTime, &tu.StartDate, &tu.ScheduleRelationship, &tu.VehicleID,
			&tu.VehicleLabel, &tu.Timestamp, &tu.Delay, &tu.LastUpdatedTimestamp); err != nil {
			return nil, fmt.Errorf("scan trip update: %w", err)
		}
		byID[tu.TripUpdateID] = &tu
		order = append(order, tu.TripUpdateID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stuRows, err := g.Reader.QueryContext(ctx, `
		SELECT trip_update_id, stop_sequence, stop_id, arrival_time, arrival_delay,
		       arrival_uncertainty, departure_time, departure_delay,
		       departure_uncertainty, schedule_relationship
		FROM realtime_trip_stop_time_updates
	`)
	if err != nil {
		return nil, fmt.Errorf("query stop time updates: %w", err)
	}
	defer stuRows.Close()

	for stuRows.Next() {
		var stu gtfsmodel.StopTimeUpdate
		if err := stuRows.Scan(&stu.TripUpdateID, &stu.StopSequence, &stu.StopID,
			&stu.ArrivalTime, &stu.ArrivalDelay, &stu.ArrivalUncertainty,
			&stu.DepartureTime, &stu.DepartureDelay, &stu.DepartureUncertainty,
			&stu.ScheduleRelationship); err != nil {
			return nil, fmt.Errorf("scan stop time update: %w", err)
		}
		if tu, ok := byID[stu.TripUpdateID]; ok {
			tu.StopTimeUpdates = append(tu.StopTimeUpdates, stu)
		}
	}
	if err := stuRows.Err(); err != nil {
		return nil, err
	}

	out := make([]gtfsmodel.TripUpdate, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// FetchRealtimeServiceAlerts returns every persisted ServiceAlert with
// its active periods and informed entities attached.
func (g *Gateway) FetchRealtimeServiceAlerts(ctx context.Context) ([]gtfsmodel.ServiceAlert, error) {
	rows, err := g.Reader.QueryContext(ctx, `
		SELECT service_alert_id, cause, effect, url, header_text, description_text,
		       tts_header_text, tts_description_text, severity_level, last_updated_timestamp
		FROM realtime_service_alerts
	`)
	if err != nil {
		return nil, fmt.Errorf("query service alerts: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*gtfsmodel.ServiceAlert)
	var order []string
	for rows.Next() {
		var a gtfsmodel.ServiceAlert
		if err := rows.Scan(&a.ServiceAlertID, &a.Cause, &a.Effect, &a.URL, &a.HeaderText,
			&a.DescriptionText, &a.TTSHeaderText, &a.TTSDescriptionText, &a.SeverityLevel,
			&a.LastUpdatedTimestamp); err != nil {
			return nil, fmt.Errorf("scan service alert: %w", err)
		}
		byID[a.ServiceAlertID] = &a
		order = append(order, a.ServiceAlertID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	periodRows, err := g.Reader.QueryContext(ctx,
		`SELECT service_alert_id, start_timestamp, end_timestamp FROM realtime_alert_active_periods`)
	if err != nil {
		return nil, fmt.Errorf("query alert active periods: %w", err)
	}
	defer periodRows.Close()
	for periodRows.Next() {
		var p gtfsmodel.AlertActivePeriod
		if err := periodRows.Scan(&p.ServiceAlertID, &p.StartTimestamp, &p.EndTimestamp); err != nil {
			return nil, fmt.Errorf("scan alert active period: %w", err)
		}
		if a, ok := byID[p.ServiceAlertID]; ok {
			a.ActivePeriods = append(a.ActivePeriods, p)
		}
	}
	if err := periodRows.Err(); err != nil {
		return nil, err
	}

	entityRows, err := g.Reader.QueryContext(ctx,
		`SELECT service_alert_id, agency_id, route_id, route_type, trip_id, stop_id
		 FROM realtime_alert_informed_entities`)
	if err != nil {
		return nil, fmt.Errorf("query informed entities: %w", err)
	}
	defer entityRows.Close()
	for entityRows.Next() {
		var e gtfsmodel.AlertInformedEntity
		if err := entityRows.Scan(&e.ServiceAlertID, &e.AgencyID, &e.RouteID, &e.RouteType,
			&e.TripID, &e.StopID); err != nil {
			return nil, fmt.Errorf("scan informed entity: %w", err)
		}
		if a, ok := byID[e.ServiceAlertID]; ok {
			a.InformedEntities = append(a.InformedEntities, e)
		}
	}
	if err := entityRows.Err(); err != nil {
		return nil, err
	}

	out := make([]gtfsmodel.ServiceAlert, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// FetchRealtimeVehiclePositions returns every persisted VehiclePosition.
func (g *Gateway) FetchRealtimeVehiclePositions(ctx context.Context) ([]gtfsmodel.VehiclePosition, error) {
	rows, err := g.Reader.QueryContext(ctx, `
		SELECT vehicle_position_id, trip_id, route_id, vehicle_id, vehicle_label,
		       latitude, longitude, bearing, speed, current_stop_sequence,
		       current_status, congestion_level, timestamp, last_updated_timestamp
		FROM realtime_vehicle_positions
	`)
	if err != nil {
		return nil, fmt.Errorf("query vehicle positions: %w", err)
	}
	defer rows.Close()

	var out []gtfsmodel.VehiclePosition
	for rows.Next() {
		var vp gtfsmodel.VehiclePosition
		if err := rows.Scan(&vp.VehiclePositionID, &vp.TripID, &vp.RouteID, &vp.VehicleID,
			&vp.VehicleLabel, &vp.Latitude, &vp.Longitude, &vp.Bearing, &vp.Speed,
			&vp.CurrentStopSequence, &vp.CurrentStatus, &vp.CongestionLevel, &vp.Timestamp,
			&vp.LastUpdatedTimestamp); err != nil {
			return nil, fmt.Errorf("scan vehicle position: %w", err)
		}
		out = append(out, vp)
	}
	return out, rows.Err()
}
