package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// BeginTx opens a transaction on the writer connection, for the Flush
// Scheduler's per-tick atomicity (spec.md §4.3).
func (g *Gateway) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return g.Writer.BeginTx(ctx, nil)
}

// ClearRealtimeData deletes every row from all six realtime tables,
// regardless of age, used at C11 startup to discard data left over from
// a previous process.
func (g *Gateway) ClearRealtimeData(ctx context.Context) error {
	tx, err := g.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin clear tx: %w", err)
	}
	defer tx.Rollback()

	tables := []string{
		"realtime_trip_stop_time_updates",
		"realtime_trip_updates",
		"realtime_alert_active_periods",
		"realtime_alert_informed_entities",
		"realtime_service_alerts",
		"realtime_vehicle_positions",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// AgeOutRealtime deletes rows whose last_updated_timestamp is older
// than cutoff from every realtime table, per spec.md §4.3 step 1.
// Unlike the predecessor's cleanup job, this ages alerts too, resolving
// the parity gap spec.md §9 calls out.
func (g *Gateway) AgeOutRealtime(ctx context.Context, tx *sql.Tx, cutoff int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_trip_stop_time_updates WHERE trip_update_id IN (
			SELECT trip_update_id FROM realtime_trip_updates WHERE last_updated_timestamp < ?)`, cutoff); err != nil {
		return fmt.Errorf("age out trip stop time updates: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_trip_updates WHERE last_updated_timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("age out trip updates: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_alert_active_periods WHERE service_alert_id IN (
			SELECT service_alert_id FROM realtime_service_alerts WHERE last_updated_timestamp < ?)`, cutoff); err != nil {
		return fmt.Errorf("age out alert active periods: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_alert_informed_entities WHERE service_alert_id IN (
			SELECT service_alert_id FROM realtime_service_alerts WHERE last_updated_timestamp < ?)`, cutoff); err != nil {
		return fmt.Errorf("age out alert informed entities: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_service_alerts WHERE last_updated_timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("age out service alerts: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_vehicle_positions WHERE last_updated_timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("age out vehicle positions: %w", err)
	}
	return nil
}

// DeleteTripUpdate removes a TripUpdate and its children.
func (g *Gateway) DeleteTripUpdate(ctx context.Context, tx *sql.Tx, tripUpdateID string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_trip_stop_time_updates WHERE trip_update_id = ?`, tripUpdateID); err != nil {
		return fmt.Errorf("delete stop time updates: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_trip_updates WHERE trip_update_id = ?`, tripUpdateID); err != nil {
		return fmt.Errorf("delete trip update: %w", err)
	}
	return nil
}

// InsertTripUpdate performs upsert-by-replace: delete any existing rows
// for tu.TripUpdateID, then insert the parent followed by its children,
// per spec.md §4.3 step 3.
func (g *Gateway) InsertTripUpdate(ctx context.Context, tx *sql.Tx, tu gtfsmodel.TripUpdate) error {
	if err := g.DeleteTripUpdate(ctx, tx, tu.TripUpdateID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO realtime_trip_updates
			(trip_update_id, trip_id, route_id, direction_id, start_time, start_date,
			 schedule_relationship, vehicle_id, vehicle_label, timestamp, delay,
			 last_updated_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tu.TripUpdateID, tu.TripID, tu.RouteID, tu.DirectionID, tu.StartTime, tu.StartDate,
		tu.ScheduleRelationship, tu.VehicleID, tu.VehicleLabel, tu.Timestamp, tu.Delay,
		tu.LastUpdatedTimestamp); err != nil {
		return fmt.Errorf("insert trip update: %w", err)
	}

	for _, stu := range tu.StopTimeUpdates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO realtime_trip_stop_time_updates
				(trip_update_id, stop_sequence, stop_id, arrival_time, arrival_delay,
				 arrival_uncertainty, departure_time, departure_delay, departure_uncertainty,
				 schedule_relationship)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tu.TripUpdateID, stu.StopSequence, stu.StopID, stu.ArrivalTime, stu.ArrivalDelay,
			stu.ArrivalUncertainty, stu.DepartureTime, stu.DepartureDelay,
			stu.DepartureUncertainty, stu.ScheduleRelationship); err != nil {
			return fmt.Errorf("insert stop time update: %w", err)
		}
	}
	return nil
}

// DeleteServiceAlert removes a ServiceAlert and its children.
func (g *Gateway) DeleteServiceAlert(ctx context.Context, tx *sql.Tx, serviceAlertID string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_alert_active_periods WHERE service_alert_id = ?`, serviceAlertID); err != nil {
		return fmt.Errorf("delete alert active periods: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_alert_informed_entities WHERE service_alert_id = ?`, serviceAlertID); err != nil {
		return fmt.Errorf("delete alert informed entities: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_service_alerts WHERE service_alert_id = ?`, serviceAlertID); err != nil {
		return fmt.Errorf("delete service alert: %w", err)
	}
	return nil
}

// InsertServiceAlert performs upsert-by-replace for a ServiceAlert and
// its active periods / informed entities.
func (g *Gateway) InsertServiceAlert(ctx context.Context, tx *sql.Tx, a gtfsmodel.ServiceAlert) error {
	if err := g.DeleteServiceAlert(ctx, tx, a.ServiceAlertID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO realtime_service_alerts
			(service_alert_id, cause, effect, url, header_text, description_text,
			 tts_header_text, tts_description_text, severity_level, last_updated_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ServiceAlertID, a.Cause, a.Effect, a.URL, a.HeaderText, a.DescriptionText,
		a.TTSHeaderText, a.TTSDescriptionText, a.SeverityLevel, a.LastUpdatedTimestamp); err != nil {
		return fmt.Errorf("insert service alert: %w", err)
	}

	for _, p := range a.ActivePeriods {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO realtime_alert_active_periods (service_alert_id, start_timestamp, end_timestamp)
			 VALUES (?, ?, ?)`,
			a.ServiceAlertID, p.StartTimestamp, p.EndTimestamp); err != nil {
			return fmt.Errorf("insert alert active period: %w", err)
		}
	}
	for _, e := range a.InformedEntities {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO realtime_alert_informed_entities
				(service_alert_id, agency_id, route_id, route_type, trip_id, stop_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ServiceAlertID, e.AgencyID, e.RouteID, e.RouteType, e.TripID, e.StopID); err != nil {
			return fmt.Errorf("insert informed entity: %w", err)
		}
	}
	return nil
}

// DeleteVehiclePosition removes a VehiclePosition row.
func (g *Gateway) DeleteVehiclePosition(ctx context.Context, tx *sql.Tx, vehiclePositionID string) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM realtime_vehicle_positions WHERE vehicle_position_id = ?`, vehiclePositionID)
	if err != nil {
		return fmt.Errorf("delete vehicle position: %w", err)
	}
	return nil
}

// InsertVehiclePosition performs upsert-by-replace for a VehiclePosition.
func (g *Gateway) InsertVehiclePosition(ctx context.Context, tx *sql.Tx, vp gtfsmodel.VehiclePosition) error {
	if err := g.DeleteVehiclePosition(ctx, tx, vp.VehiclePositionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO realtime_vehicle_positions
			(vehicle_position_id, trip_id, route_id, vehicle_id, vehicle_label, latitude,
			 longitude, bearing, speed, current_stop_sequence, current_status,
			 congestion_level, timestamp, last_updated_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		vp.VehiclePositionID, vp.TripID, vp.RouteID, vp.VehicleID, vp.VehicleLabel, vp.Latitude,
		vp.Longitude, vp.Bearing, vp.Speed, vp.CurrentStopSequence, vp.CurrentStatus,
		vp.CongestionLevel, vp.Timestamp, vp.LastUpdatedTimestamp); err != nil {
		return fmt.Errorf("insert vehicle position: %w", err)
	}
	return nil
}
