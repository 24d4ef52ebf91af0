// Package nominal builds and publishes the Nominal Index (C1): the
// in-memory snapshot of scheduled stops, routes, trips, and per-route
// start-time candidates the Matcher reconciles incoming entities
// against. Grounded on spec.md §4.2's build procedure and on
// tidbyt-gtfs/storage/storage.go's active-service/stop-time query shape.
package nominal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/transitfusion/gtfsrealtime/internal/store"
)

// Index is an immutable snapshot of the scheduled timetable for one
// operation day. Never mutated after Build returns it.
type Index struct {
	OperationDay string

	stopIDs  map[string]struct{}
	routeIDs map[string]struct{}
	tripIDs  map[string]struct{}

	// perRouteStartTimes[routeID][startTime] is the ordered list of
	// candidate trip_ids whose first stop departs at startTime.
	perRouteStartTimes map[string]map[string][]string

	// intermediateStops[tripID] is the ordered list of stop_id by
	// ascending stop_sequence.
	intermediateStops map[string][]string
}

// Reader is the subset of store.Gateway the index build needs; declared
// here so nominal does not otherwise depend on store's full surface.
type Reader interface {
	ActiveServiceIDs(ctx context.Context, date time.Time) ([]string, error)
	FetchNominalOperationDayTrips(ctx context.Context, serviceIDs []string, full bool) ([]store.NominalStopTime, error)
	FetchNominalStops(ctx context.Context) ([]string, error)
	FetchNominalRoutes(ctx context.Context) ([]string, error)
}

// Build resolves the active service_ids for date and constructs a fresh
// Index, per spec.md §4.2 steps 1-3.
func Build(ctx context.Context, reader Reader, date time.Time) (*Index, error) {
	serviceIDs, err := reader.ActiveServiceIDs(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("resolve active service ids: %w", err)
	}

	rows, err := reader.FetchNominalOperationDayTrips(ctx, serviceIDs, true)
	if err != nil {
		return nil, fmt.Errorf("fetch nominal operation day trips: %w", err)
	}

	stopIDs, err := reader.FetchNominalStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch nominal stops: %w", err)
	}
	routeIDs, err := reader.FetchNominalRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch nominal routes: %w", err)
	}

	idx := &Index{
		OperationDay:       date.Format("20060102"),
		stopIDs:            toSet(stopIDs),
		routeIDs:           toSet(routeIDs),
		tripIDs:            make(map[string]struct{}),
		perRouteStartTimes: make(map[string]map[string][]string),
		intermediateStops:  make(map[string][]string),
	}

	for _, row := range rows {
		idx.tripIDs[row.TripID] = struct{}{}
		idx.intermediateStops[row.TripID] = append(idx.intermediateStops[row.TripID], row.StopID)

		if row.StopSequence == 1 {
			byStart, ok := idx.perRouteStartTimes[row.RouteID]
			if !ok {
				byStart = make(map[string][]string)
				idx.perRouteStartTimes[row.RouteID] = byStart
			}
			byStart[row.DepartureTime] = append(byStart[row.DepartureTime], row.TripID)
		}
	}

	return idx, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// HasStop reports whether stopID is a known nominal stop.
func (idx *Index) HasStop(stopID string) bool {
	_, ok := idx.stopIDs[stopID]
	return ok
}

// HasRoute reports whether routeID is a known nominal route.
func (idx *Index) HasRoute(routeID string) bool {
	_, ok := idx.routeIDs[routeID]
	return ok
}

// HasTrip reports whether tripID is a nominal trip for this operation day.
func (idx *Index) HasTrip(tripID string) bool {
	_, ok := idx.tripIDs[tripID]
	return ok
}

// CandidateTrips returns the ordered candidate trip_ids departing
// startTime on routeID, or nil if there is no such entry.
func (idx *Index) CandidateTrips(routeID, startTime string) []string {
	byStart, ok := idx.perRouteStartTimes[routeID]
	if !ok {
		return nil
	}
	return byStart[startTime]
}

// IntermediateStops returns the ordered stop_id list for tripID, or nil
// if tripID is unknown.
func (idx *Index) IntermediateStops(tripID string) []string {
	return idx.intermediateStops[tripID]
}

// Store publishes Index snapshots by atomic pointer swap, per spec.md
// §5/§9's "swap-pointer style publication" design note.
type Store struct {
	current atomic.Pointer[Index]
}

// Publish installs idx as the current snapshot. Safe to call
// concurrently with Current.
func (s *Store) Publish(idx *Index) {
	s.current.Store(idx)
}

// Current returns the most recently published snapshot, or nil before
// the first Publish.
func (s *Store) Current() *Index {
	return s.current.Load()
}
