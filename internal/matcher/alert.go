package matcher

import (
	"database/sql"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// MatchServiceAlert reconciles a ServiceAlert entity, per spec.md
// §4.1.2, and enqueues the result onto the Write Queues. Grounded on
// process_service_alerts in src/gtfsduckdb/adapter/gtfsrt.py, with the
// informed-entity survival check corrected to inspect both route_id
// and stop_id (the source checks route_id twice) per the spec's
// explicit English description.
func (s *Session) MatchServiceAlert(raw *gtfsrt.FeedEntity, nowUnix int64) {
	if raw.GetAlert() == nil {
		return
	}

	entity := proto.Clone(raw).(*gtfsrt.FeedEntity)

	if entity.GetIsDeleted() {
		s.queues.ServiceAlertDelete.Push(entity.GetId())
		return
	}

	alert := entity.GetAlert()
	var surviving []gtfsmodel.AlertInformedEntity

	for _, ie := range alert.GetInformedEntity() {
		row := gtfsmodel.AlertInformedEntity{ServiceAlertID: entity.GetId()}

		if ie.AgencyId != nil {
			row.AgencyID = sql.NullString{String: ie.GetAgencyId(), Valid: true}
		}
		if ie.RouteId != nil {
			mapped := s.mapping.Route(ie.GetRouteId())
			if s.idx.HasRoute(mapped) {
				row.RouteID = sql.NullString{String: mapped, Valid: true}
			}
		}
		if ie.RouteType != nil {
			row.RouteType = sql.NullInt32{Int32: ie.GetRouteType(), Valid: true}
		}
		if trip := ie.GetTrip(); trip != nil && trip.TripId != nil {
			row.TripID = sql.NullString{String: trip.GetTripId(), Valid: true}
		}
		if ie.StopId != nil {
			mapped := s.mapping.Stop(ie.GetStopId())
			if s.idx.HasStop(mapped) {
				row.StopID = sql.NullString{String: mapped, Valid: true}
			}
		}

		if row.HasReference() {
			surviving = append(surviving, row)
		}
	}

	if len(surviving) == 0 {
		s.log.Warn("alert discarded: no surviving informed entity", "alert_id", entity.GetId())
		return
	}

	row := gtfsmodel.ServiceAlert{
		ServiceAlertID:       entity.GetId(),
		Cause:                alert.GetCause().String(),
		Effect:               alert.GetEffect().String(),
		SeverityLevel:        "UNKNOWN_SEVERITY",
		LastUpdatedTimestamp: nowUnix,
		InformedEntities:     surviving,
	}
	if alert.SeverityLevel != nil {
		row.SeverityLevel = alert.GetSeverityLevel().String()
	}
	if alert.Url != nil {
		row.URL = sql.NullString{String: ExtractTranslation(alert.GetUrl(), s.lang), Valid: true}
	}
	if alert.HeaderText != nil {
		row.HeaderText = sql.NullString{String: ExtractTranslation(alert.GetHeaderText(), s.lang), Valid: true}
	}
	if alert.DescriptionText != nil {
		row.DescriptionText = sql.NullString{String: ExtractTranslation(alert.GetDescriptionText(), s.lang), Valid: true}
	}
	if alert.TtsHeaderText != nil {
		row.TTSHeaderText = sql.NullString{String: ExtractTranslation(alert.GetTtsHeaderText(), s.lang), Valid: true}
	}
	if alert.TtsDescriptionText != nil {
		row.TTSDescriptionText = sql.NullString{String: ExtractTranslation(alert.GetTtsDescriptionText(), s.lang), Valid: true}
	}

	for _, p := range alert.GetActivePeriod() {
		period := gtfsmodel.AlertActivePeriod{ServiceAlertID: entity.GetId()}
		if p.Start != nil {
			period.StartTimestamp = sql.NullInt64{Int64: int64(p.GetStart()), Valid: true}
		}
		if p.End != nil {
			period.EndTimestamp = sql.NullInt64{Int64: int64(p.GetEnd()), Valid: true}
		}
		row.ActivePeriods = append(row.ActivePeriods, period)
	}

	s.queues.ServiceAlertInsert.Push(row)
}
