package matcher

import (
	"database/sql"
	"sort"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// MatchTripUpdate reconciles a TripUpdate entity against the session's
// Nominal Index, per spec.md §4.1.1, and enqueues the resulting insert
// or delete onto the Write Queues. Grounded on process_trip_updates in
// src/gtfsduckdb/adapter/gtfsrt.py.
func (s *Session) MatchTripUpdate(raw *gtfsrt.FeedEntity, nowUnix int64) {
	if raw.GetTripUpdate() == nil || raw.GetTripUpdate().GetTrip() == nil {
		return
	}

	entity := proto.Clone(raw).(*gtfsrt.FeedEntity)
	tu := entity.GetTripUpdate()
	trip := tu.GetTrip()

	routeID := s.mapping.Route(trip.GetRouteId())
	trip.RouteId = &routeID
	for _, stu := range tu.GetStopTimeUpdate() {
		if stu.GetStopId() != "" {
			mapped := s.mapping.Stop(stu.GetStopId())
			stu.StopId = &mapped
		}
	}

	tripID := trip.GetTripId()
	var finalTripID string
	var removeIdx []int

	if s.idx.HasTrip(tripID) {
		finalTripID = tripID
	} else {
		startTime := trip.GetStartTime()
		if startTime == "" {
			s.log.Debug("trip update dropped: no start_time for non-nominal trip", "trip_id", tripID)
			return
		}
		candidates := s.idx.CandidateTrips(routeID, startTime)
		if len(candidates) == 0 {
			s.log.Debug("trip update dropped: no candidates", "route_id", routeID, "start_time", startTime)
			return
		}

		matched := false
		for _, candidate := range candidates {
			nominalStops := s.idx.IntermediateStops(candidate)
			accepted, staged := verifyStopSequence(nominalStops, tu.GetStopTimeUpdate(), s.mapping,
				s.cfg.MatchAgainstFirstStopID, s.cfg.MatchAgainstStopIDs, s.cfg.RemoveInvalidStopIDs)
			if accepted {
				finalTripID = candidate
				removeIdx = staged
				matched = true
				break
			}
		}
		if !matched {
			s.log.Warn("trip update dropped: no candidate passed stop-sequence verification",
				"route_id", routeID, "start_time", startTime)
			return
		}
	}

	stopTimeUpdates := tu.GetStopTimeUpdate()
	if len(removeIdx) > 0 {
		sort.Sort(sort.Reverse(sort.IntSlice(removeIdx)))
		for _, i := range removeIdx {
			stopTimeUpdates = append(stopTimeUpdates[:i], stopTimeUpdates[i+1:]...)
		}
	}

	if entity.GetIsDeleted() {
		s.queues.TripUpdateDelete.Push(finalTripID)
		return
	}

	row := gtfsmodel.TripUpdate{
		TripUpdateID:         finalTripID,
		TripID:               finalTripID,
		RouteID:              routeID,
		ScheduleRelationship: trip.GetScheduleRelationship().String(),
		LastUpdatedTimestamp: nowUnix,
	}
	if trip.DirectionId != nil {
		row.DirectionID = sql.NullInt32{Int32: int32(trip.GetDirectionId()), Valid: true}
	}
	if trip.StartTime != nil {
		row.StartTime = sql.NullString{String: trip.GetStartTime(), Valid: true}
	}
	if trip.StartDate != nil {
		row.StartDate = sql.NullString{String: trip.GetStartDate(), Valid: true}
	}
	if veh := tu.GetVehicle(); veh != nil {
		if veh.Id != nil {
			row.VehicleID = sql.NullString{String: veh.GetId(), Valid: true}
		}
		if veh.Label != nil {
			row.VehicleLabel = sql.NullString{String: veh.GetLabel(), Valid: true}
		}
	}
	if tu.Timestamp != nil {
		row.Timestamp = sql.NullInt64{Int64: int64(tu.GetTimestamp()), Valid: true}
	}
	if tu.Delay != nil {
		row.Delay = sql.NullInt32{Int32: tu.GetDelay(), Valid: true}
	}

	for _, stu := range stopTimeUpdates {
		childRow := gtfsmodel.StopTimeUpdate{
			TripUpdateID:         finalTripID,
			ScheduleRelationship: stu.GetScheduleRelationship().String(),
		}
		if stu.StopSequence != nil {
			childRow.StopSequence = sql.NullInt32{Int32: int32(stu.GetStopSequence()), Valid: true}
		}
		if stu.StopId != nil {
			childRow.StopID = sql.NullString{String: stu.GetStopId(), Valid: true}
		}
		if arr := stu.GetArrival(); arr != nil {
			if arr.Time != nil {
				childRow.ArrivalTime = sql.NullInt64{Int64: arr.GetTime(), Valid: true}
			}
			if arr.Delay != nil {
				childRow.ArrivalDelay = sql.NullInt32{Int32: arr.GetDelay(), Valid: true}
			}
			if arr.Uncertainty != nil {
				childRow.ArrivalUncertainty = sql.NullInt32{Int32: arr.GetUncertainty(), Valid: true}
			}
		}
		if dep := stu.GetDeparture(); dep != nil {
			if dep.Time != nil {
				childRow.DepartureTime = sql.NullInt64{Int64: dep.GetTime(), Valid: true}
			}
			if dep.Delay != nil {
				childRow.DepartureDelay = sql.NullInt32{Int32: dep.GetDelay(), Valid: true}
			}
			if dep.Uncertainty != nil {
				childRow.DepartureUncertainty = sql.NullInt32{Int32: dep.GetUncertainty(), Valid: true}
			}
		}
		row.StopTimeUpdates = append(row.StopTimeUpdates, childRow)
	}

	s.queues.TripUpdateInsert.Push(row)
}

// verifyStopSequence implements the five-row policy table of spec.md
// §4.1.1, transcribed from the per-candidate loop in
// src/gtfsduckdb/adapter/gtfsrt.py's process_trip_updates. Returns
// whether the candidate is accepted and, when accepted, the indices
// (into stopTimeUpdates) to delete before persisting.
func verifyStopSequence(nominalStops []string, stopTimeUpdates []*gtfsrt.TripUpdate_StopTimeUpdate,
	mapping Mapping, matchFirst, matchAll, removeInvalid bool) (accepted bool, removeIdx []int) {

	if !matchFirst && !matchAll && !removeInvalid {
		return true, nil
	}

	var toRemove []int
	for i, stu := range stopTimeUpdates {
		seq := int(stu.GetStopSequence())
		if matchFirst && !matchAll && !removeInvalid && seq != 1 {
			continue
		}
		if seq > len(nominalStops) {
			return false, nil
		}
		idx := seq - 1
		if idx < 0 {
			idx = 0
		}
		nomID := nominalStops[idx]
		actID := mapping.Stop(stu.GetStopId())
		if nomID == actID {
			continue
		}
		if removeInvalid {
			toRemove = append(toRemove, i)
		}
		if matchAll {
			return false, nil
		}
	}
	return true, toRemove
}
