package httpapi

import (
	"database/sql"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

func feedHeader(now time.Time) *gtfsrt.FeedHeader {
	incrementality := gtfsrt.FeedHeader_FULL_DATASET
	return &gtfsrt.FeedHeader{
		GtfsRealtimeVersion: proto.String("2.0"),
		Incrementality:      &incrementality,
		Timestamp:           proto.Uint64(uint64(now.Unix())),
	}
}

// buildTripUpdatesFeed projects persisted TripUpdate rows into a
// FeedMessage, per spec.md §4.5: entities with zero surviving
// stop_time_update entries are omitted.
func buildTripUpdatesFeed(rows []gtfsmodel.TripUpdate, now time.Time) *gtfsrt.FeedMessage {
	msg := &gtfsrt.FeedMessage{Header: feedHeader(now)}

	for _, row := range rows {
		if len(row.StopTimeUpdates) == 0 {
			continue
		}

		trip := &gtfsrt.TripDescriptor{TripId: proto.String(row.TripID)}
		if row.RouteID != "" {
			trip.RouteId = proto.String(row.RouteID)
		}
		if row.DirectionID.Valid {
			trip.DirectionId = proto.Uint32(uint32(row.DirectionID.Int32))
		}
		if row.StartTime.Valid {
			trip.StartTime = proto.String(row.StartTime.String)
		}
		if row.StartDate.Valid {
			trip.StartDate = proto.String(row.StartDate.String)
		}
		if rel, ok := gtfsrt.TripDescriptor_ScheduleRelationship_value[row.ScheduleRelationship]; ok {
			relTyped := gtfsrt.TripDescriptor_ScheduleRelationship(rel)
			trip.ScheduleRelationship = &relTyped
		}

		tu := &gtfsrt.TripUpdate{Trip: trip}
		if row.VehicleID.Valid || row.VehicleLabel.Valid {
			veh := &gtfsrt.VehicleDescriptor{}
			if row.VehicleID.Valid {
				veh.Id = proto.String(row.VehicleID.String)
			}
			if row.VehicleLabel.Valid {
				veh.Label = proto.String(row.VehicleLabel.String)
			}
			tu.Vehicle = veh
		}
		if row.Timestamp.Valid {
			tu.Timestamp = proto.Uint64(uint64(row.Timestamp.Int64))
		}
		if row.Delay.Valid {
			tu.Delay = proto.Int32(row.Delay.Int32)
		}

		for _, stu := range row.StopTimeUpdates {
			out := &gtfsrt.TripUpdate_StopTimeUpdate{}
			if stu.StopSequence.Valid {
				out.StopSequence = proto.Uint32(uint32(stu.StopSequence.Int32))
			}
			if stu.StopID.Valid {
				out.StopId = proto.String(stu.StopID.String)
			}
			if stu.ArrivalTime.Valid || stu.ArrivalDelay.Valid || stu.ArrivalUncertainty.Valid {
				out.Arrival = stopTimeEvent(stu.ArrivalTime, stu.ArrivalDelay, stu.ArrivalUncertainty)
			}
			if stu.DepartureTime.Valid || stu.DepartureDelay.Valid || stu.DepartureUncertainty.Valid {
				out.Departure = stopTimeEvent(stu.DepartureTime, stu.DepartureDelay, stu.DepartureUncertainty)
			}
			if rel, ok := gtfsrt.TripUpdate_StopTimeUpdate_ScheduleRelationship_value[stu.ScheduleRelationship]; ok {
				relTyped := gtfsrt.TripUpdate_StopTimeUpdate_ScheduleRelationship(rel)
				out.ScheduleRelationship = &relTyped
			}
			tu.StopTimeUpdate = append(tu.StopTimeUpdate, out)
		}

		msg.Entity = append(msg.Entity, &gtfsrt.FeedEntity{
			Id:         proto.String(row.TripUpdateID),
			TripUpdate: tu,
		})
	}

	return msg
}

func stopTimeEvent(t sql.NullInt64, delay, uncertainty sql.NullInt32) *gtfsrt.TripUpdate_StopTimeEvent {
	ev := &gtfsrt.TripUpdate_StopTimeEvent{}
	if t.Valid {
		ev.Time = proto.Int64(t.Int64)
	}
	if delay.Valid {
		ev.Delay = proto.Int32(delay.Int32)
	}
	if uncertainty.Valid {
		ev.Uncertainty = proto.Int32(uncertainty.Int32)
	}
	return ev
}

// buildServiceAlertsFeed projects persisted ServiceAlert rows into a
// FeedMessage.
func buildServiceAlertsFeed(rows []gtfsmodel.ServiceAlert, now time.Time) *gtfsrt.FeedMessage {
	msg := &gtfsrt.FeedMessage{Header: feedHeader(now)}

	for _, row := range rows {
		alert := &gtfsrt.Alert{}
		if cause, ok := gtfsrt.Alert_Cause_value[row.Cause]; ok {
			causeTyped := gtfsrt.Alert_Cause(cause)
			alert.Cause = &causeTyped
		}
		if effect, ok := gtfsrt.Alert_Effect_value[row.Effect]; ok {
			effectTyped := gtfsrt.Alert_Effect(effect)
			alert.Effect = &effectTyped
		}
		if severity, ok := gtfsrt.Alert_SeverityLevel_value[row.SeverityLevel]; ok {
			severityTyped := gtfsrt.Alert_SeverityLevel(severity)
			alert.SeverityLevel = &severityTyped
		}
		if row.URL.Valid {
			alert.Url = translatedString(row.URL.String)
		}
		if row.HeaderText.Valid {
			alert.HeaderText = translatedString(row.HeaderText.String)
		}
		if row.DescriptionText.Valid {
			alert.DescriptionText = translatedString(row.DescriptionText.String)
		}
		if row.TTSHeaderText.Valid {
			alert.TtsHeaderText = translatedString(row.TTSHeaderText.String)
		}
		if row.TTSDescriptionText.Valid {
			alert.TtsDescriptionText = translatedString(row.TTSDescriptionText.String)
		}

		for _, p := range row.ActivePeriods {
			period := &gtfsrt.TimeRange{}
			if p.StartTimestamp.Valid {
				period.Start = proto.Uint64(uint64(p.StartTimestamp.Int64))
			}
			if p.EndTimestamp.Valid {
				period.End = proto.Uint64(uint64(p.EndTimestamp.Int64))
			}
			alert.ActivePeriod = append(alert.ActivePeriod, period)
		}

		for _, e := range row.InformedEntities {
			sel := &gtfsrt.EntitySelector{}
			if e.AgencyID.Valid {
				sel.AgencyId = proto.String(e.AgencyID.String)
			}
			if e.RouteID.Valid {
				sel.RouteId = proto.String(e.RouteID.String)
			}
			if e.RouteType.Valid {
				sel.RouteType = proto.Int32(e.RouteType.Int32)
			}
			if e.TripID.Valid {
				sel.Trip = &gtfsrt.TripDescriptor{TripId: proto.String(e.TripID.String)}
			}
			if e.StopID.Valid {
				sel.StopId = proto.String(e.StopID.String)
			}
			alert.InformedEntity = append(alert.InformedEntity, sel)
		}

		msg.Entity = append(msg.Entity, &gtfsrt.FeedEntity{
			Id:    proto.String(row.ServiceAlertID),
			Alert: alert,
		})
	}

	return msg
}

func translatedString(text string) *gtfsrt.TranslatedString {
	return &gtfsrt.TranslatedString{
		Translation: []*gtfsrt.TranslatedString_Translation{{Text: proto.String(text)}},
	}
}

// buildVehiclePositionsFeed projects persisted VehiclePosition rows
// into a FeedMessage.
func buildVehiclePositionsFeed(rows []gtfsmodel.VehiclePosition, now time.Time) *gtfsrt.FeedMessage {
	msg := &gtfsrt.FeedMessage{Header: feedHeader(now)}

	for _, row := range rows {
		vp := &gtfsrt.VehiclePosition{}

		if row.TripID.Valid || row.RouteID.Valid {
			trip := &gtfsrt.TripDescriptor{}
			if row.TripID.Valid {
				trip.TripId = proto.String(row.TripID.String)
			}
			if row.RouteID.Valid {
				trip.RouteId = proto.String(row.RouteID.String)
			}
			vp.Trip = trip
		}
		if row.VehicleID.Valid || row.VehicleLabel.Valid {
			veh := &gtfsrt.VehicleDescriptor{}
			if row.VehicleID.Valid {
				veh.Id = proto.String(row.VehicleID.String)
			}
			if row.VehicleLabel.Valid {
				veh.Label = proto.String(row.VehicleLabel.String)
			}
			vp.Vehicle = veh
		}
		if row.Latitude.Valid || row.Longitude.Valid {
			pos := &gtfsrt.Position{}
			if row.Latitude.Valid {
				pos.Latitude = proto.Float32(float32(row.Latitude.Float64))
			}
			if row.Longitude.Valid {
				pos.Longitude = proto.Float32(float32(row.Longitude.Float64))
			}
			if row.Bearing.Valid {
				pos.Bearing = proto.Float32(float32(row.Bearing.Float64))
			}
			if row.Speed.Valid {
				pos.Speed = proto.Float32(float32(row.Speed.Float64))
			}
			vp.Position = pos
		}
		if row.CurrentStopSequence.Valid {
			vp.CurrentStopSequence = proto.Uint32(uint32(row.CurrentStopSequence.Int32))
		}
		if row.CurrentStatus.Valid {
			if status, ok := gtfsrt.VehiclePosition_VehicleStopStatus_value[row.CurrentStatus.String]; ok {
				statusTyped := gtfsrt.VehiclePosition_VehicleStopStatus(status)
				vp.CurrentStatus = &statusTyped
			}
		}
		if row.CongestionLevel.Valid {
			if level, ok := gtfsrt.VehiclePosition_CongestionLevel_value[row.CongestionLevel.String]; ok {
				levelTyped := gtfsrt.VehiclePosition_CongestionLevel(level)
				vp.CongestionLevel = &levelTyped
			}
		}
		if row.Timestamp.Valid {
			vp.Timestamp = proto.Uint64(uint64(row.Timestamp.Int64))
		}

		msg.Entity = append(msg.Entity, &gtfsrt.FeedEntity{
			Id:      proto.String(row.VehiclePositionID),
			Vehicle: vp,
		})
	}

	return msg
}
