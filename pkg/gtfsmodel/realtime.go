package gtfsmodel

import "database/sql"

// TripUpdate is a reconciled realtime trip update, one row per entity
// the matcher accepted.
type TripUpdate struct {
	TripUpdateID          string
	TripID                string
	RouteID               string
	DirectionID           sql.NullInt32
	StartTime             sql.NullString
	StartDate             sql.NullString
	ScheduleRelationship  string
	VehicleID             sql.NullString
	VehicleLabel          sql.NullString
	Timestamp             sql.NullInt64
	Delay                 sql.NullInt32
	LastUpdatedTimestamp  int64
	StopTimeUpdates       []StopTimeUpdate
}

// StopTimeUpdate is a single stop revision owned by a TripUpdate.
type StopTimeUpdate struct {
	TripUpdateID         string
	StopSequence         sql.NullInt32
	StopID               sql.NullString
	ArrivalTime          sql.NullInt64
	ArrivalDelay         sql.NullInt32
	ArrivalUncertainty   sql.NullInt32
	DepartureTime        sql.NullInt64
	DepartureDelay       sql.NullInt32
	DepartureUncertainty sql.NullInt32
	ScheduleRelationship string
}

// ServiceAlert is a reconciled realtime service alert.
type ServiceAlert struct {
	ServiceAlertID       string
	Cause                string
	Effect               string
	URL                  sql.NullString
	HeaderText           sql.NullString
	DescriptionText      sql.NullString
	TTSHeaderText        sql.NullString
	TTSDescriptionText   sql.NullString
	SeverityLevel        string
	LastUpdatedTimestamp int64
	ActivePeriods        []AlertActivePeriod
	InformedEntities     []AlertInformedEntity
}

// AlertActivePeriod is one [Start, End) window owned by a ServiceAlert.
type AlertActivePeriod struct {
	ServiceAlertID string
	StartTimestamp sql.NullInt64
	EndTimestamp   sql.NullInt64
}

// AlertInformedEntity references the object a ServiceAlert concerns.
// At least one reference field is non-null for any persisted row.
type AlertInformedEntity struct {
	ServiceAlertID string
	AgencyID       sql.NullString
	RouteID        sql.NullString
	RouteType      sql.NullInt32
	TripID         sql.NullString
	StopID         sql.NullString
}

// HasReference reports whether any reference field is populated.
func (e AlertInformedEntity) HasReference() bool {
	return e.AgencyID.Valid || e.RouteID.Valid || e.RouteType.Valid ||
		e.TripID.Valid || e.StopID.Valid
}

// VehiclePosition is a reconciled realtime vehicle position. Unlike
// TripUpdate and ServiceAlert it is never run through the matcher —
// it is staged for insert/delete as received.
type VehiclePosition struct {
	VehiclePositionID    string
	TripID               sql.NullString
	RouteID              sql.NullString
	VehicleID            sql.NullString
	VehicleLabel         sql.NullString
	Latitude             sql.NullFloat64
	Longitude            sql.NullFloat64
	Bearing              sql.NullFloat64
	Speed                sql.NullFloat64
	CurrentStopSequence  sql.NullInt32
	CurrentStatus        sql.NullString
	CongestionLevel      sql.NullString
	Timestamp            sql.NullInt64
	LastUpdatedTimestamp int64
}
