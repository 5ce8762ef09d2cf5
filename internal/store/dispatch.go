package store

import (
	"context"

	"github.com/tillkruss/ruddarr/internal/domain"
)

// Dispatch runs a mutating remote operation on behalf of the entity busyID.
//
// The previous error is cleared and Busy is set to busyID while op runs.
// Dispatches may overlap; Busy always shows the most recently started one
// and a completion only resets it when no newer dispatch replaced it.
// Items are never touched. Failures are classified and recorded, except
// cancellation. Reports whether op succeeded.
func (s *Store[T]) Dispatch(ctx context.Context, busyID int, op func(context.Context) error) bool {
	var token uint64
	s.update(func() bool {
		s.busyToken++
		token = s.busyToken
		s.busy = busyID
		s.err = nil
		return true
	})

	err := op(ctx)
	classified := domain.Classify(err)

	s.update(func() bool {
		if token == s.busyToken {
			s.busy = 0
		}
		if classified != nil && classified.Kind != domain.KindCancelled {
			s.err = classified
		}
		return true
	})

	switch {
	case classified == nil:
		s.logger.Debug("Dispatch completed", "id", busyID)
	case classified.Kind == domain.KindCancelled:
		s.logger.Debug("Dispatch cancelled", "id", busyID)
	default:
		s.logger.Error("Dispatch failed", "id", busyID, "kind", classified.Kind, "error", err)
	}

	return classified == nil
}

// Busy returns the entity id of the most recent in-flight dispatch
func (s *Store[T]) Busy() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}
