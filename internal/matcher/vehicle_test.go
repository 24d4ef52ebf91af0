package matcher

import (
	"testing"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/transitfusion/gtfsrealtime/internal/config"
)

func TestMatchVehiclePosition_IsDeleted_RoutesToDeleteQueue(t *testing.T) {
	session, queues := newMatchSession(t, config.MatchingConfig{})
	entity := &gtfsrt.FeedEntity{
		Id:        stringp("v1"),
		IsDeleted: proto.Bool(true),
		Vehicle:   &gtfsrt.VehiclePosition{},
	}

	session.MatchVehiclePosition(entity, time.Now().Unix())

	id, ok := queues.VehiclePositionDelete.Pop()
	require.True(t, ok)
	assert.Equal(t, "v1", id)
	assert.Equal(t, 0, queues.VehiclePositionInsert.Len())
}

func TestMatchVehiclePosition_NoMatchingStep_UnknownTripStillPersisted(t *testing.T) {
	session, queues := newMatchSession(t, config.MatchingConfig{})
	entity := &gtfsrt.FeedEntity{
		Id: stringp("v1"),
		Vehicle: &gtfsrt.VehiclePosition{
			Trip: &gtfsrt.TripDescriptor{TripId: stringp("UNKNOWN-TRIP"), RouteId: stringp("UNKNOWN-ROUTE")},
			Position: &gtfsrt.Position{
				Latitude:  proto.Float32(-37.8),
				Longitude: proto.Float32(144.9),
			},
		},
	}

	session.MatchVehiclePosition(entity, time.Now().Unix())

	row, ok := queues.VehiclePositionInsert.Pop()
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN-TRIP", row.TripID.String, "vehicle positions are staged as received, never reconciled against the nominal index")
	assert.Equal(t, "UNKNOWN-ROUTE", row.RouteID.String)
	assert.InDelta(t, -37.8, row.Latitude.Float64, 0.001)
}

func TestMatchVehiclePosition_OptionalFields_OnlySetWhenPresent(t *testing.T) {
	session, queues := newMatchSession(t, config.MatchingConfig{})
	entity := &gtfsrt.FeedEntity{
		Id:      stringp("v1"),
		Vehicle: &gtfsrt.VehiclePosition{},
	}

	session.MatchVehiclePosition(entity, time.Now().Unix())

	row, ok := queues.VehiclePositionInsert.Pop()
	require.True(t, ok)
	assert.False(t, row.TripID.Valid)
	assert.False(t, row.VehicleID.Valid)
	assert.False(t, row.Latitude.Valid)
	assert.False(t, row.CurrentStatus.Valid)
}

func TestMatchVehiclePosition_NoVehiclePayload_NotStaged(t *testing.T) {
	session, queues := newMatchSession(t, config.MatchingConfig{})
	entity := &gtfsrt.FeedEntity{Id: stringp("v1")}

	session.MatchVehiclePosition(entity, time.Now().Unix())

	assert.Equal(t, 0, queues.VehiclePositionInsert.Len())
	assert.Equal(t, 0, queues.VehiclePositionDelete.Len())
}
