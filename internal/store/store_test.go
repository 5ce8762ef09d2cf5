package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tillkruss/ruddarr/internal/domain"
)

func items(v ...int) func(context.Context) ([]int, error) {
	return func(context.Context) ([]int, error) { return v, nil }
}

func TestFetchReplacesItems(t *testing.T) {
	s := New[int]("test", nil)

	require.NoError(t, s.Fetch(context.Background(), "a", items(1, 2, 3)))
	snap := s.Snapshot()
	assert.Equal(t, []int{1, 2, 3}, snap.Items)
	assert.Nil(t, snap.Err)
	assert.False(t, snap.IsFetching)
	assert.Equal(t, "a", s.Owner())

	require.NoError(t, s.Fetch(context.Background(), "a", items(4)))
	assert.Equal(t, []int{4}, s.Items())
}

func TestFetchSetsFetchingForDuration(t *testing.T) {
	s := New[int]("test", nil)

	err := s.Fetch(context.Background(), "a", func(context.Context) ([]int, error) {
		assert.True(t, s.Snapshot().IsFetching)
		return []int{1}, nil
	})
	require.NoError(t, err)
	assert.False(t, s.Snapshot().IsFetching)
}

func TestFetchOutOfOrderCompletion(t *testing.T) {
	s := New[int]("test", nil)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	// The first fetch ignores its context and completes after the second.
	go func() {
		done <- s.Fetch(context.Background(), "a", func(context.Context) ([]int, error) {
			close(started)
			<-release
			return []int{1}, nil
		})
	}()
	<-started

	require.NoError(t, s.Fetch(context.Background(), "a", items(2)))
	close(release)

	err := <-done
	assert.True(t, domain.IsCancelled(err))

	snap := s.Snapshot()
	assert.Equal(t, []int{2}, snap.Items)
	assert.Nil(t, snap.Err)
	assert.False(t, snap.IsFetching)
}

func TestFetchCancelsSupersededRequest(t *testing.T) {
	s := New[int]("test", nil)

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.Fetch(context.Background(), "a", func(ctx context.Context) ([]int, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
	}()
	<-started

	require.NoError(t, s.Fetch(context.Background(), "a", items(5)))

	err := <-done
	require.Error(t, err)
	assert.True(t, domain.IsCancelled(err))
	assert.Equal(t, []int{5}, s.Items())
	assert.Nil(t, s.Snapshot().Err)
}

func TestFetchFailureKeepsItems(t *testing.T) {
	s := New[int]("test", nil)
	require.NoError(t, s.Fetch(context.Background(), "a", items(1, 2)))

	err := s.Fetch(context.Background(), "a", func(context.Context) ([]int, error) {
		return nil, &domain.StatusError{Code: 500}
	})
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, []int{1, 2}, snap.Items)
	require.NotNil(t, snap.Err)
	assert.Equal(t, domain.KindBadStatus, snap.Err.Kind)
	assert.Equal(t, 500, snap.Err.Code)
	assert.False(t, snap.IsFetching)
}

func TestFetchCancellationIsSilent(t *testing.T) {
	s := New[int]("test", nil)
	require.NoError(t, s.Fetch(context.Background(), "a", items(1, 2)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Fetch(ctx, "a", func(ctx context.Context) ([]int, error) {
		return nil, ctx.Err()
	})
	assert.True(t, domain.IsCancelled(err))

	snap := s.Snapshot()
	assert.Equal(t, []int{1, 2}, snap.Items)
	assert.Nil(t, snap.Err)
	assert.False(t, snap.IsFetching)
}

func TestFetchWithDoneContextNeverStarts(t *testing.T) {
	s := New[int]("test", nil)
	s.SetError(&domain.StatusError{Code: 500})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Fetch(ctx, "a", func(context.Context) ([]int, error) {
		called = true
		return []int{1}, nil
	})
	assert.True(t, domain.IsCancelled(err))
	assert.False(t, called)

	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.NotNil(t, snap.Err)
	assert.False(t, snap.IsFetching)
	assert.Empty(t, s.Owner())
}

func TestFetchClearsPreviousError(t *testing.T) {
	s := New[int]("test", nil)
	s.SetError(&domain.StatusError{Code: 404})
	require.NotNil(t, s.Snapshot().Err)

	err := s.Fetch(context.Background(), "a", func(context.Context) ([]int, error) {
		assert.Nil(t, s.Snapshot().Err)
		return []int{1}, nil
	})
	require.NoError(t, err)
	assert.Nil(t, s.Snapshot().Err)
}

func TestFetchDropsItemsOfAnotherOwner(t *testing.T) {
	s := New[int]("test", nil)
	require.NoError(t, s.Fetch(context.Background(), "series:1", items(1, 2)))

	err := s.Fetch(context.Background(), "series:2", func(context.Context) ([]int, error) {
		assert.Empty(t, s.Items())
		return nil, &domain.StatusError{Code: 500}
	})
	require.Error(t, err)
	assert.Empty(t, s.Items())
	assert.Equal(t, "series:2", s.Owner())
}

func TestSubscribe(t *testing.T) {
	s := New[int]("test", nil)

	var calls atomic.Int32
	unsubscribe := s.Subscribe(func() { calls.Add(1) })

	require.NoError(t, s.Fetch(context.Background(), "a", items(1)))
	assert.Equal(t, int32(2), calls.Load())

	s.ClearError() // nothing to clear
	assert.Equal(t, int32(2), calls.Load())

	unsubscribe()
	unsubscribe()
	s.Reset()
	assert.Equal(t, int32(2), calls.Load())
}

func TestSubscriberCanReadSnapshot(t *testing.T) {
	s := New[int]("test", nil)

	var seen [][]int
	s.Subscribe(func() { seen = append(seen, s.Items()) })

	require.NoError(t, s.Fetch(context.Background(), "a", items(7)))
	require.Len(t, seen, 2)
	assert.Equal(t, []int{7}, seen[1])
}

func TestReset(t *testing.T) {
	s := New[int]("test", nil)
	require.NoError(t, s.Fetch(context.Background(), "a", items(1)))
	s.SetError(errors.New("boom"))

	s.Reset()
	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Nil(t, snap.Err)
	assert.Empty(t, s.Owner())
}

func TestSetErrorIgnoresCancellation(t *testing.T) {
	s := New[int]("test", nil)
	s.SetError(context.Canceled)
	assert.Nil(t, s.Snapshot().Err)

	s.SetError(errors.New("boom"))
	require.NotNil(t, s.Snapshot().Err)
	assert.Equal(t, domain.KindUnknown, s.Snapshot().Err.Kind)

	s.ClearError()
	assert.Nil(t, s.Snapshot().Err)
}

func TestLookups(t *testing.T) {
	s := New[int]("test", nil)
	require.NoError(t, s.Fetch(context.Background(), "a", items(3, 1, 4, 1, 5)))

	v, ok := s.Find(func(i int) bool { return i > 3 })
	assert.True(t, ok)
	assert.Equal(t, 4, v)

	_, ok = s.Find(func(i int) bool { return i > 10 })
	assert.False(t, ok)

	assert.Equal(t, []int{1, 1}, s.Where(func(i int) bool { return i == 1 }))
	assert.Empty(t, s.Where(func(i int) bool { return i == 9 }))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New[int]("test", nil)
	require.NoError(t, s.Fetch(context.Background(), "a", items(1, 2)))

	snap := s.Snapshot()
	snap.Items[0] = 99
	assert.Equal(t, []int{1, 2}, s.Items())
}
