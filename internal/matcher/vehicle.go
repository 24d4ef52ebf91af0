package matcher

import (
	"database/sql"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// MatchVehiclePosition routes a VehiclePosition entity to insert or
// delete without any reconciliation step, per spec.md §4.1's "reserved
// but not implemented" note and §9's open-question resolution: the
// original source's vehicle-position tables exist but the matching
// step was never built, so this mirrors trip-update routing minus
// matching.
func (s *Session) MatchVehiclePosition(entity *gtfsrt.FeedEntity, nowUnix int64) {
	vp := entity.GetVehicle()
	if vp == nil {
		return
	}

	id := entity.GetId()
	if entity.GetIsDeleted() {
		s.queues.VehiclePositionDelete.Push(id)
		return
	}

	row := gtfsmodel.VehiclePosition{
		VehiclePositionID:    id,
		LastUpdatedTimestamp: nowUnix,
	}
	if trip := vp.GetTrip(); trip != nil {
		if trip.TripId != nil {
			row.TripID = sql.NullString{String: trip.GetTripId(), Valid: true}
		}
		if trip.RouteId != nil {
			row.RouteID = sql.NullString{String: trip.GetRouteId(), Valid: true}
		}
	}
	if veh := vp.GetVehicle(); veh != nil {
		if veh.Id != nil {
			row.VehicleID = sql.NullString{String: veh.GetId(), Valid: true}
		}
		if veh.Label != nil {
			row.VehicleLabel = sql.NullString{String: veh.GetLabel(), Valid: true}
		}
	}
	if pos := vp.GetPosition(); pos != nil {
		if pos.Latitude != nil {
			row.Latitude = sql.NullFloat64{Float64: float64(pos.GetLatitude()), Valid: true}
		}
		if pos.Longitude != nil {
			row.Longitude = sql.NullFloat64{Float64: float64(pos.GetLongitude()), Valid: true}
		}
		if pos.Bearing != nil {
			row.Bearing = sql.NullFloat64{Float64: float64(pos.GetBearing()), Valid: true}
		}
		if pos.Speed != nil {
			row.Speed = sql.NullFloat64{Float64: float64(pos.GetSpeed()), Valid: true}
		}
	}
	if vp.CurrentStopSequence != nil {
		row.CurrentStopSequence = sql.NullInt32{Int32: int32(vp.GetCurrentStopSequence()), Valid: true}
	}
	if vp.CurrentStatus != nil {
		row.CurrentStatus = sql.NullString{String: vp.GetCurrentStatus().String(), Valid: true}
	}
	if vp.CongestionLevel != nil {
		row.CongestionLevel = sql.NullString{String: vp.GetCongestionLevel().String(), Valid: true}
	}
	if vp.Timestamp != nil {
		row.Timestamp = sql.NullInt64{Int64: int64(vp.GetTimestamp()), Valid: true}
	}

	s.queues.VehiclePositionInsert.Push(row)
}
