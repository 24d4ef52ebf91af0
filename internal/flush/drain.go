package flush

import (
	"context"
	"database/sql"
	"fmt"
)

// drainDeletes empties the three delete queues before the insert
// queues, so a delete arriving before an insert for the same key
// collapses correctly, per spec.md §5.
func (s *Scheduler) drainDeletes(ctx context.Context, tx *sql.Tx) error {
	for {
		id, ok := s.queues.TripUpdateDelete.Pop()
		if !ok {
			break
		}
		if err := s.gateway.DeleteTripUpdate(ctx, tx, id); err != nil {
			return fmt.Errorf("drain trip update delete: %w", err)
		}
	}
	for {
		id, ok := s.queues.ServiceAlertDelete.Pop()
		if !ok {
			break
		}
		if err := s.gateway.DeleteServiceAlert(ctx, tx, id); err != nil {
			return fmt.Errorf("drain service alert delete: %w", err)
		}
	}
	for {
		id, ok := s.queues.VehiclePositionDelete.Pop()
		if !ok {
			break
		}
		if err := s.gateway.DeleteVehiclePosition(ctx, tx, id); err != nil {
			return fmt.Errorf("drain vehicle position delete: %w", err)
		}
	}
	return nil
}

// drainInserts empties the three insert queues. Each insert is
// upsert-by-replace (delete-then-insert) at the gateway level, so
// inserting the same primary id twice in one tick still yields exactly
// one row.
func (s *Scheduler) drainInserts(ctx context.Context, tx *sql.Tx) error {
	for {
		row, ok := s.queues.TripUpdateInsert.Pop()
		if !ok {
			break
		}
		if err := s.gateway.InsertTripUpdate(ctx, tx, row); err != nil {
			return fmt.Errorf("drain trip update insert: %w", err)
		}
	}
	for {
		row, ok := s.queues.ServiceAlertInsert.Pop()
		if !ok {
			break
		}
		if err := s.gateway.InsertServiceAlert(ctx, tx, row); err != nil {
			return fmt.Errorf("drain service alert insert: %w", err)
		}
	}
	for {
		row, ok := s.queues.VehiclePositionInsert.Pop()
		if !ok {
			break
		}
		if err := s.gateway.InsertVehiclePosition(ctx, tx, row); err != nil {
			return fmt.Errorf("drain vehicle position insert: %w", err)
		}
	}
	return nil
}
