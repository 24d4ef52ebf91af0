package nominal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitfusion/gtfsrealtime/internal/store"
)

type fakeReader struct {
	serviceIDs []string
	trips      []store.NominalStopTime
	stops      []string
	routes     []string
}

func (f fakeReader) ActiveServiceIDs(ctx context.Context, date time.Time) ([]string, error) {
	return f.serviceIDs, nil
}
func (f fakeReader) FetchNominalOperationDayTrips(ctx context.Context, serviceIDs []string, full bool) ([]store.NominalStopTime, error) {
	return f.trips, nil
}
func (f fakeReader) FetchNominalStops(ctx context.Context) ([]string, error)  { return f.stops, nil }
func (f fakeReader) FetchNominalRoutes(ctx context.Context) ([]string, error) { return f.routes, nil }

func TestBuild_PopulatesLookupsAndCandidates(t *testing.T) {
	reader := fakeReader{
		serviceIDs: []string{"WD"},
		trips: []store.NominalStopTime{
			{TripID: "T1", RouteID: "R1", StopID: "S1", StopSequence: 1, DepartureTime: "08:00:00"},
			{TripID: "T1", RouteID: "R1", StopID: "S2", StopSequence: 2, DepartureTime: "08:10:00"},
			{TripID: "T2", RouteID: "R1", StopID: "S1", StopSequence: 1, DepartureTime: "08:00:00"},
		},
		stops:  []string{"S1", "S2"},
		routes: []string{"R1"},
	}

	idx, err := Build(context.Background(), reader, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "20260730", idx.OperationDay)
	assert.True(t, idx.HasStop("S1"))
	assert.True(t, idx.HasRoute("R1"))
	assert.True(t, idx.HasTrip("T1"))
	assert.False(t, idx.HasStop("UNKNOWN"))
	assert.False(t, idx.HasRoute("UNKNOWN"))
	assert.False(t, idx.HasTrip("UNKNOWN"))

	assert.Equal(t, []string{"T1", "T2"}, idx.CandidateTrips("R1", "08:00:00"),
		"two trips share a route/start_time, so both are candidates in insertion order")
	assert.Nil(t, idx.CandidateTrips("R1", "09:00:00"))
	assert.Nil(t, idx.CandidateTrips("UNKNOWN-ROUTE", "08:00:00"))

	assert.Equal(t, []string{"S1", "S2"}, idx.IntermediateStops("T1"))
	assert.Nil(t, idx.IntermediateStops("UNKNOWN-TRIP"))
}

func TestBuild_OnlyFirstStopSequenceSeedsCandidates(t *testing.T) {
	reader := fakeReader{
		serviceIDs: []string{"WD"},
		trips: []store.NominalStopTime{
			{TripID: "T1", RouteID: "R1", StopID: "S2", StopSequence: 2, DepartureTime: "08:10:00"},
		},
		stops:  []string{"S2"},
		routes: []string{"R1"},
	}

	idx, err := Build(context.Background(), reader, time.Now())
	require.NoError(t, err)

	assert.Nil(t, idx.CandidateTrips("R1", "08:10:00"), "a stop_sequence != 1 row must never seed a start-time candidate")
	assert.True(t, idx.HasTrip("T1"))
}

func TestBuild_EmptyActiveServices_ProducesEmptyIndex(t *testing.T) {
	reader := fakeReader{}
	idx, err := Build(context.Background(), reader, time.Now())
	require.NoError(t, err)

	assert.False(t, idx.HasTrip("anything"))
	assert.Nil(t, idx.CandidateTrips("R1", "08:00:00"))
}

func TestStore_CurrentNilBeforeFirstPublish(t *testing.T) {
	s := &Store{}
	assert.Nil(t, s.Current())
}

func TestStore_PublishSwapsAtomically(t *testing.T) {
	s := &Store{}
	first := &Index{OperationDay: "20260730"}
	second := &Index{OperationDay: "20260731"}

	s.Publish(first)
	assert.Same(t, first, s.Current())

	s.Publish(second)
	assert.Same(t, second, s.Current())
}
