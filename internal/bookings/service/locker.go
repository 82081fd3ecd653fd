package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "hotelbooking/internal/bookings/errors"
	"hotelbooking/internal/bookings/repository"
	"hotelbooking/pkg/clock"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"github.com/google/uuid"
)

// RoomLocker serialises booking writes per room. The returned unlock must
// be called exactly once.
type RoomLocker interface {
	Lock(ctx context.Context, roomID int64) (unlock func(), err error)
}

type roomSlot struct {
	sem     chan struct{}
	waiters int
}

// MemoryLocker is a keyed mutex for a single process.
type MemoryLocker struct {
	mu    sync.Mutex
	rooms map[int64]*roomSlot
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{rooms: make(map[int64]*roomSlot)}
}

func (l *MemoryLocker) Lock(ctx context.Context, roomID int64) (func(), error) {
	l.mu.Lock()
	slot, ok := l.rooms[roomID]
	if !ok {
		slot = &roomSlot{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = slot
	}
	slot.waiters++
	l.mu.Unlock()

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		l.leave(roomID, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.sem
			l.leave(roomID, slot)
		})
	}, nil
}

func (l *MemoryLocker) leave(roomID int64, slot *roomSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.waiters--
	if slot.waiters == 0 {
		delete(l.rooms, roomID)
	}
}

const (
	lockInitialBackoff = 25 * time.Millisecond
	lockMaxBackoff     = 400 * time.Millisecond
	lockReleaseTimeout = 5 * time.Second
)

// MongoLocker holds a lock document per room so several processes can
// share one database. A waiter retries with backoff for at most one lock
// TTL, after which the request is answered with a conflict.
type MongoLocker struct {
	repo  repository.BookingLockRepository
	ttl   time.Duration
	clock clock.Clock
	log   *logger.Logger
}

func NewMongoLocker(repo repository.BookingLockRepository, ttl time.Duration, clk clock.Clock, log *logger.Logger) *MongoLocker {
	return &MongoLocker{repo: repo, ttl: ttl, clock: clk, log: log}
}

func (l *MongoLocker) Lock(ctx context.Context, roomID int64) (func(), error) {
	lockID := model.RoomLockID(roomID)
	owner := uuid.NewString()
	deadline := time.Now().Add(l.ttl)
	backoff := lockInitialBackoff

	for {
		lock := &model.BookingLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: l.clock.Now().Add(l.ttl),
		}
		err := l.repo.Acquire(ctx, lock)
		if err == nil {
			break
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return nil, apperrors.Internal("Failed to acquire booking lock", err)
		}
		if time.Now().Add(backoff).After(deadline) {
			return nil, apperrors.Conflict("This room is being booked by another request. Please try again.")
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, lockMaxBackoff)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
			defer cancel()
			if err := l.repo.Release(releaseCtx, lockID, owner); err != nil {
				l.log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
			}
		})
	}, nil
}
