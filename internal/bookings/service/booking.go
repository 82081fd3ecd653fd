package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	bookingserrors "hotelbooking/internal/bookings/errors"
	"hotelbooking/internal/bookings/repository"
	"hotelbooking/internal/bookings/validator"
	"hotelbooking/internal/events"
	roomserrors "hotelbooking/internal/rooms/errors"
	"hotelbooking/pkg/clock"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/sanitizer"

	"github.com/google/uuid"
)

const (
	referencePrefix   = "HB-"
	referenceAttempts = 3
)

// RoomCatalog looks up the room being booked. The room repository
// satisfies it.
type RoomCatalog interface {
	FindDetail(ctx context.Context, id int64) (*model.RoomDetail, error)
}

type BookingService interface {
	Quote(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (*model.Quote, error)
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	Get(ctx context.Context, id int64) (*model.BookingDetail, error)
	GetForUser(ctx context.Context, userID int64, reference string) (*model.BookingDetail, error)
	List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingDetail, int64, error)
	StatusCounts(ctx context.Context) (map[string]int64, error)
	Cancel(ctx context.Context, userID int64, reference string) error
	Approve(ctx context.Context, id int64, actor string) error
	Reject(ctx context.Context, id int64, actor string) error
	Reschedule(ctx context.Context, id int64, req *model.RescheduleRequest, actor string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	rooms     RoomCatalog
	locker    RoomLocker
	validator *validator.BookingValidator
	publisher events.Publisher
	clock     clock.Clock
	log       *logger.Logger
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms RoomCatalog,
	locker RoomLocker,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	clk clock.Clock,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		rooms:     rooms,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		clock:     clk,
		log:       log,
	}
}

func (s *bookingService) Quote(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (*model.Quote, error) {
	room, err := s.bookableRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateStay(checkIn, checkOut); errs.Any() {
		return nil, errs.Err("Please choose valid dates")
	}
	return quoteFor(room, checkIn, checkOut), nil
}

// Create books a room. The overlap check and the insert run in one
// transaction under the room lock, so of two overlapping requests exactly
// one succeeds and the other gets a conflict.
func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitize(req)

	room, err := s.bookableRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateRequest(req, room.Type.MaxOccupancy); errs.Any() {
		s.log.Warn("Booking validation failed", "room_id", req.RoomID, "fields", errs)
		return nil, errs.Err("")
	}

	quote := quoteFor(room, req.CheckIn, req.CheckOut)
	booking := &model.Booking{
		RoomID:          req.RoomID,
		UserID:          req.UserID,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		TotalPrice:      quote.Total,
		Status:          model.BookingStatusPending,
		SpecialRequests: req.SpecialRequests,
	}

	unlock, err := s.locker.Lock(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		booking.Reference = newReference()
		err = s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
			conflict, err := s.repo.HasConflict(ctx, booking.RoomID, booking.CheckIn, booking.CheckOut, 0)
			if err != nil {
				return err
			}
			if conflict {
				return bookingserrors.ErrDatesConflict
			}
			return s.repo.Create(ctx, booking)
		})
		if !errors.Is(err, bookingserrors.ErrDuplicateReference) || attempt == referenceAttempts {
			break
		}
	}
	if err != nil {
		if !errors.Is(err, bookingserrors.ErrDatesConflict) {
			s.log.Error("Failed to create booking", "room_id", booking.RoomID, "error", err)
		}
		return nil, s.mapError(err, strconv.FormatInt(booking.RoomID, 10), "Failed to create booking")
	}

	s.log.Info("Booking created",
		"id", booking.ID,
		"reference", booking.Reference,
		"room_id", booking.RoomID,
		"check_in", booking.CheckIn.Format(time.DateOnly),
		"check_out", booking.CheckOut.Format(time.DateOnly),
	)
	s.publisher.PublishBooking(ctx, model.NewBookingEvent(model.EventBookingCreated, booking, "guest", s.clock.Now()))
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, id int64) (*model.BookingDetail, error) {
	booking, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, s.mapError(err, strconv.FormatInt(id, 10), "Failed to retrieve booking")
	}
	return booking, nil
}

// GetForUser hides other guests' bookings behind a plain not-found.
func (s *bookingService) GetForUser(ctx context.Context, userID int64, reference string) (*model.BookingDetail, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	booking, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, s.mapError(err, reference, "Failed to retrieve booking")
	}
	if booking.UserID != userID {
		return nil, apperrors.NotFoundWithID("Booking", reference)
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingDetail, int64, error) {
	var count int64
	var bookings []*model.BookingDetail
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) StatusCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.log.Error("Failed to count bookings by status", "error", err)
		return nil, apperrors.Internal("Failed to count bookings", err)
	}
	return counts, nil
}

// Cancel lets a guest cancel their own pending or confirmed booking up to
// the day before check-in.
func (s *bookingService) Cancel(ctx context.Context, userID int64, reference string) error {
	booking, err := s.GetForUser(ctx, userID, reference)
	if err != nil {
		return err
	}
	if !model.CanTransition(booking.Status, model.BookingStatusCancelled) {
		return apperrors.Conflict(fmt.Sprintf("A %s booking cannot be cancelled", booking.Status))
	}
	if !clock.Today(s.clock).Before(booking.CheckIn) {
		return apperrors.Conflict("Bookings can only be cancelled before the check-in date")
	}

	return s.transition(ctx, &booking.Booking, model.BookingStatusCancelled, model.EventBookingCancelled, "guest")
}

func (s *bookingService) Approve(ctx context.Context, id int64, actor string) error {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapError(err, strconv.FormatInt(id, 10), "Failed to retrieve booking")
	}
	return s.transition(ctx, booking, model.BookingStatusConfirmed, model.EventBookingConfirmed, actor)
}

func (s *bookingService) Reject(ctx context.Context, id int64, actor string) error {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapError(err, strconv.FormatInt(id, 10), "Failed to retrieve booking")
	}
	return s.transition(ctx, booking, model.BookingStatusRejected, model.EventBookingRejected, actor)
}

// Reschedule moves an active booking to new dates. The booking itself is
// excluded from the overlap check so it may shift within its own stay.
func (s *bookingService) Reschedule(ctx context.Context, id int64, req *model.RescheduleRequest, actor string) error {
	idStr := strconv.FormatInt(id, 10)
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapError(err, idStr, "Failed to retrieve booking")
	}
	if !booking.IsActive() {
		return apperrors.Conflict(fmt.Sprintf("A %s booking cannot be rescheduled", booking.Status))
	}
	if errs := s.validator.ValidateReschedule(req); errs.Any() {
		return errs.Err("Please choose valid dates")
	}

	room, err := s.rooms.FindDetail(ctx, booking.RoomID)
	if err != nil {
		return s.mapError(err, idStr, "Failed to retrieve room")
	}
	total := quoteFor(room, req.CheckIn, req.CheckOut).Total

	unlock, err := s.locker.Lock(ctx, booking.RoomID)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		conflict, err := s.repo.HasConflict(ctx, booking.RoomID, req.CheckIn, req.CheckOut, booking.ID)
		if err != nil {
			return err
		}
		if conflict {
			return bookingserrors.ErrDatesConflict
		}
		return s.repo.UpdateDates(ctx, booking.ID, req.CheckIn, req.CheckOut, total)
	})
	if err != nil {
		return s.mapError(err, idStr, "Failed to reschedule booking")
	}

	booking.CheckIn, booking.CheckOut, booking.TotalPrice = req.CheckIn, req.CheckOut, total
	s.log.Info("Booking rescheduled", "id", id, "actor", actor,
		"check_in", req.CheckIn.Format(time.DateOnly), "check_out", req.CheckOut.Format(time.DateOnly))
	s.publisher.PublishBooking(ctx, model.NewBookingEvent(model.EventBookingRescheduled, booking, actor, s.clock.Now()))
	return nil
}

// --- Helpers ---

func (s *bookingService) transition(ctx context.Context, booking *model.Booking, status, eventType, actor string) error {
	idStr := strconv.FormatInt(booking.ID, 10)
	if !model.CanTransition(booking.Status, status) {
		return apperrors.Conflict(fmt.Sprintf("Booking is %s and cannot become %s", booking.Status, status))
	}
	if err := s.repo.UpdateStatus(ctx, booking.ID, status); err != nil {
		return s.mapError(err, idStr, "Failed to update booking")
	}

	booking.Status = status
	s.log.Info("Booking status changed", "id", booking.ID, "reference", booking.Reference, "status", status, "actor", actor)
	s.publisher.PublishBooking(ctx, model.NewBookingEvent(eventType, booking, actor, s.clock.Now()))
	return nil
}

func (s *bookingService) bookableRoom(ctx context.Context, roomID int64) (*model.RoomDetail, error) {
	room, err := s.rooms.FindDetail(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", strconv.FormatInt(roomID, 10))
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	if !room.Bookable() {
		return nil, apperrors.Conflict("This room is not open for booking right now")
	}
	return room, nil
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.GuestName = sanitizer.NormalizeName(req.GuestName)
	req.GuestEmail = sanitizer.NormalizeEmail(req.GuestEmail)
	req.GuestPhone = sanitizer.NormalizePhone(req.GuestPhone)
	req.SpecialRequests = sanitizer.NormalizeText(req.SpecialRequests)
}

func (s *bookingService) mapError(err error, id, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrRoomNotFound), errors.Is(err, roomserrors.ErrNotFound):
		return apperrors.NotFound("Room")
	case errors.Is(err, bookingserrors.ErrDatesConflict):
		return apperrors.Conflict("The room is already booked for some of those nights. Please choose other dates.")
	case errors.Is(err, bookingserrors.ErrInvalidTransition):
		return apperrors.Conflict("The booking was changed by someone else. Please reload and try again.")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout(message)
	}
	s.log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func quoteFor(room *model.RoomDetail, checkIn, checkOut time.Time) *model.Quote {
	nights := model.NightsBetween(checkIn, checkOut)
	rate := room.NightlyRate()
	return &model.Quote{
		RoomID:      room.ID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      nights,
		NightlyRate: rate,
		Total:       int64(nights) * rate,
	}
}

func newReference() string {
	id := uuid.New()
	return referencePrefix + strings.ToUpper(fmt.Sprintf("%x", id[:4]))
}
