package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitfusion/gtfsrealtime/internal/logging"
	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

func openTestGateway(t *testing.T) *Gateway {
	t.Helper()
	log := logging.New(zerolog.Disabled)
	// A named, shared-cache in-memory database so the reader and writer
	// connections see the same bootstrapped tables.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	g, err := Open(dsn, dsn, log)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestActiveServiceIDs_RulesAndExceptions(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	_, err := g.Writer.ExecContext(ctx, `
		INSERT INTO calendar_rules
			(service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date)
		VALUES ('WD', 1, 1, 1, 1, 1, 0, 0, '2026-01-01', '2026-12-31')`)
	require.NoError(t, err)
	_, err = g.Writer.ExecContext(ctx, `
		INSERT INTO calendar_exceptions (service_id, date, exception_type) VALUES ('EXTRA', '2026-07-30', 1)`)
	require.NoError(t, err)
	_, err = g.Writer.ExecContext(ctx, `
		INSERT INTO calendar_exceptions (service_id, date, exception_type) VALUES ('WD', '2026-07-30', 2)`)
	require.NoError(t, err)

	// 2026-07-30 is a Thursday.
	ids, err := g.ActiveServiceIDs(ctx, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.NotContains(t, ids, "WD", "an exception_type=2 row for the date removes an otherwise-active rule")
	assert.Contains(t, ids, "EXTRA", "an exception_type=1 row adds a service_id not covered by any rule")
}

func TestFetchNominalOperationDayTrips_JoinsAndOrders(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	_, err := g.Writer.ExecContext(ctx, `INSERT INTO trips (trip_id, route_id, service_id) VALUES ('T1', 'R1', 'WD')`)
	require.NoError(t, err)
	_, err = g.Writer.ExecContext(ctx, `
		INSERT INTO stop_times (trip_id, stop_id, stop_sequence, departure_time) VALUES
			('T1', 'S2', 2, '08:10:00'),
			('T1', 'S1', 1, '08:00:00')`)
	require.NoError(t, err)

	rows, err := g.FetchNominalOperationDayTrips(ctx, []string{"WD"}, true)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "S1", rows[0].StopID, "rows must be ordered by stop_sequence regardless of insert order")
	assert.Equal(t, "S2", rows[1].StopID)
}

func TestFetchNominalOperationDayTrips_NoServiceIDs_ReturnsNil(t *testing.T) {
	g := openTestGateway(t)
	rows, err := g.FetchNominalOperationDayTrips(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestInsertTripUpdate_UpsertByReplace(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	tu := gtfsmodel.TripUpdate{
		TripUpdateID:         "T1",
		TripID:               "T1",
		RouteID:              "R1",
		ScheduleRelationship: "SCHEDULED",
		LastUpdatedTimestamp: 1000,
		StopTimeUpdates: []gtfsmodel.StopTimeUpdate{
			{TripUpdateID: "T1", ScheduleRelationship: "SCHEDULED"},
		},
	}

	tx, err := g.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, g.InsertTripUpdate(ctx, tx, tu))
	require.NoError(t, tx.Commit())

	rows, err := g.FetchRealtimeTripUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].StopTimeUpdates, 1)

	tu.LastUpdatedTimestamp = 2000
	tu.StopTimeUpdates = nil
	tx, err = g.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, g.InsertTripUpdate(ctx, tx, tu))
	require.NoError(t, tx.Commit())

	rows, err = g.FetchRealtimeTripUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1, "re-inserting the same trip_update_id replaces rather than duplicates")
	assert.Empty(t, rows[0].StopTimeUpdates, "re-insert with no stop time updates must leave none behind")
	assert.Equal(t, int64(2000), rows[0].LastUpdatedTimestamp)
}

func TestAgeOutRealtime_RemovesOnlyStaleRows(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	fresh := gtfsmodel.TripUpdate{TripUpdateID: "FRESH", TripID: "T1", RouteID: "R1", LastUpdatedTimestamp: 9000}
	stale := gtfsmodel.TripUpdate{TripUpdateID: "STALE", TripID: "T2", RouteID: "R1", LastUpdatedTimestamp: 100}

	tx, err := g.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, g.InsertTripUpdate(ctx, tx, fresh))
	require.NoError(t, g.InsertTripUpdate(ctx, tx, stale))
	require.NoError(t, tx.Commit())

	tx, err = g.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, g.AgeOutRealtime(ctx, tx, 5000))
	require.NoError(t, tx.Commit())

	rows, err := g.FetchRealtimeTripUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FRESH", rows[0].TripUpdateID)
}

func TestClearRealtimeData_EmptiesAllSixTables(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	tx, err := g.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, g.InsertTripUpdate(ctx, tx, gtfsmodel.TripUpdate{TripUpdateID: "T1", TripID: "T1", RouteID: "R1"}))
	require.NoError(t, g.InsertServiceAlert(ctx, tx, gtfsmodel.ServiceAlert{
		ServiceAlertID: "A1",
		InformedEntities: []gtfsmodel.AlertInformedEntity{
			{ServiceAlertID: "A1"},
		},
	}))
	require.NoError(t, g.InsertVehiclePosition(ctx, tx, gtfsmodel.VehiclePosition{VehiclePositionID: "V1"}))
	require.NoError(t, tx.Commit())

	require.NoError(t, g.ClearRealtimeData(ctx))

	tripUpdates, err := g.FetchRealtimeTripUpdates(ctx)
	require.NoError(t, err)
	assert.Empty(t, tripUpdates)

	alerts, err := g.FetchRealtimeServiceAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	positions, err := g.FetchRealtimeVehiclePositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestNominalWrites_InsertAndCount(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.InsertStops(ctx, []gtfsmodel.Stop{{StopID: "S1", StopName: "Central"}}))
	require.NoError(t, g.InsertRoutes(ctx, []gtfsmodel.Route{{RouteID: "R1", RouteShortName: "1"}}))
	require.NoError(t, g.InsertTrips(ctx, []gtfsmodel.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "WD"}}))
	require.NoError(t, g.InsertStopTimes(ctx, []gtfsmodel.StopTime{{TripID: "T1", StopID: "S1", StopSequence: 1}}))

	counts, err := g.CountNominal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Stops)
	assert.Equal(t, 1, counts.Routes)
	assert.Equal(t, 1, counts.Trips)
	assert.Equal(t, 1, counts.StopTimes)

	stops, err := g.FetchAllStops(ctx)
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "Central", stops[0].StopName)
}

func TestRemoveService_LeavesRoutesAndStopsUntouched(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.InsertStops(ctx, []gtfsmodel.Stop{{StopID: "S1"}}))
	require.NoError(t, g.InsertRoutes(ctx, []gtfsmodel.Route{{RouteID: "R1"}}))
	require.NoError(t, g.InsertTrips(ctx, []gtfsmodel.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "WD"}}))
	require.NoError(t, g.InsertStopTimes(ctx, []gtfsmodel.StopTime{{TripID: "T1", StopID: "S1", StopSequence: 1}}))

	require.NoError(t, g.RemoveService(ctx, "WD"))

	counts, err := g.CountNominal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Trips)
	assert.Equal(t, 0, counts.StopTimes, "stop_times for the removed service's trips must go with it")
	assert.Equal(t, 1, counts.Stops, "cascading deletes into stops/routes are out of scope")
	assert.Equal(t, 1, counts.Routes)
}

func TestDropNominalData_TruncatesEverything(t *testing.T) {
	g := openTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.InsertStops(ctx, []gtfsmodel.Stop{{StopID: "S1"}}))
	require.NoError(t, g.InsertRoutes(ctx, []gtfsmodel.Route{{RouteID: "R1"}}))

	require.NoError(t, g.DropNominalData(ctx))

	counts, err := g.CountNominal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Stops)
	assert.Equal(t, 0, counts.Routes)
}
