package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	roomserrors "hotelbooking/internal/rooms/errors"
	"hotelbooking/internal/rooms/repository"
	"hotelbooking/internal/rooms/validator"
	"hotelbooking/pkg/clock"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/sanitizer"
	"hotelbooking/pkg/validation"
)

const (
	defaultAvailabilityWindow = 90 * 24 * time.Hour
	maxAvailabilityWindow     = 366 * 24 * time.Hour
)

// BookedRanges reports the stays holding a room. The booking repository
// satisfies it.
type BookedRanges interface {
	ActiveRanges(ctx context.Context, roomID int64, from, to time.Time) ([]model.DateRange, error)
}

type RoomService interface {
	Featured(ctx context.Context, limit int) ([]*model.RoomDetail, error)
	RoomTypes(ctx context.Context) ([]*model.RoomType, error)
	List(ctx context.Context, filter model.RoomFilter, limit int, offset int64) ([]*model.RoomDetail, int64, error)
	Get(ctx context.Context, id int64) (*model.RoomDetail, error)
	Search(ctx context.Context, criteria model.AvailabilityCriteria) ([]*model.RoomDetail, error)
	Availability(ctx context.Context, roomID int64, from, to time.Time) (*model.Availability, error)
	Create(ctx context.Context, in *model.RoomInput) (*model.Room, error)
	Update(ctx context.Context, id int64, in *model.RoomInput) error
	Delete(ctx context.Context, id int64) error
}

type roomService struct {
	rooms     repository.RoomRepository
	types     repository.RoomTypeRepository
	images    repository.RoomImageRepository
	booked    BookedRanges
	validator *validator.RoomValidator
	clock     clock.Clock
	log       *logger.Logger
}

func NewRoomService(
	rooms repository.RoomRepository,
	types repository.RoomTypeRepository,
	images repository.RoomImageRepository,
	booked BookedRanges,
	validator *validator.RoomValidator,
	clk clock.Clock,
	log *logger.Logger,
) RoomService {
	return &roomService{
		rooms:     rooms,
		types:     types,
		images:    images,
		booked:    booked,
		validator: validator,
		clock:     clk,
		log:       log,
	}
}

// Featured falls back to the first rooms by number when none are flagged.
func (s *roomService) Featured(ctx context.Context, limit int) ([]*model.RoomDetail, error) {
	rooms, err := s.rooms.FindFeatured(ctx, limit)
	if err != nil {
		s.log.Error("Failed to load featured rooms", "error", err)
		return nil, apperrors.Internal("Failed to load featured rooms", err)
	}
	if len(rooms) > 0 {
		return rooms, nil
	}

	rooms, err = s.rooms.FindAll(ctx, model.RoomFilter{Status: model.RoomStatusAvailable}, limit, 0)
	if err != nil {
		return nil, apperrors.Internal("Failed to load rooms", err)
	}
	return rooms, nil
}

func (s *roomService) RoomTypes(ctx context.Context) ([]*model.RoomType, error) {
	types, err := s.types.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to load room types", "error", err)
		return nil, apperrors.Internal("Failed to load room types", err)
	}
	return types, nil
}

func (s *roomService) List(ctx context.Context, filter model.RoomFilter, limit int, offset int64) ([]*model.RoomDetail, int64, error) {
	var count int64
	var rooms []*model.RoomDetail
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.rooms.Count(ctx, filter)
		if errCount != nil {
			s.log.Error("Failed to count rooms", "error", errCount)
			errCount = apperrors.Internal("Failed to count rooms", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		rooms, errFind = s.rooms.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.log.Error("Failed to list rooms", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve rooms", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return rooms, count, nil
}

func (s *roomService) Get(ctx context.Context, id int64) (*model.RoomDetail, error) {
	detail, err := s.rooms.FindDetail(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "Failed to retrieve room")
	}
	return detail, nil
}

func (s *roomService) Search(ctx context.Context, c model.AvailabilityCriteria) ([]*model.RoomDetail, error) {
	if errs := s.validateCriteria(c); errs.Any() {
		return nil, errs.Err("Please check your search dates")
	}

	rooms, err := s.rooms.SearchAvailable(ctx, c)
	if err != nil {
		s.log.Error("Room search failed", "error", err)
		return nil, apperrors.Internal("Failed to search rooms", err)
	}

	s.log.Debug("Room search completed",
		"check_in", c.CheckIn,
		"check_out", c.CheckOut,
		"guests", c.Guests,
		"count", len(rooms),
	)
	return rooms, nil
}

func (s *roomService) validateCriteria(c model.AvailabilityCriteria) validation.FieldErrors {
	errs := validation.FieldErrors{}
	switch {
	case c.CheckIn.IsZero() && !c.CheckOut.IsZero():
		errs.Add("check_in", "Check-in date is required")
	case !c.CheckIn.IsZero() && c.CheckOut.IsZero():
		errs.Add("check_out", "Check-out date is required")
	case c.HasDates():
		if c.CheckIn.Before(clock.Today(s.clock)) {
			errs.Add("check_in", "Check-in date cannot be in the past")
		}
		if !c.CheckOut.After(c.CheckIn) {
			errs.Add("check_out", "Check-out must be after check-in")
		}
	}
	if c.Guests < 0 || c.Guests > 20 {
		errs.Add("guests", "Guests must be between 1 and 20")
	}
	return errs
}

// Availability returns the booked stays for the date picker. A zero window
// starts today and spans 90 days.
func (s *roomService) Availability(ctx context.Context, roomID int64, from, to time.Time) (*model.Availability, error) {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, s.mapError(err, roomID, "Failed to retrieve room")
	}

	if from.IsZero() {
		from = clock.Today(s.clock)
	}
	if to.IsZero() {
		to = from.Add(defaultAvailabilityWindow)
	}
	if !to.After(from) {
		return nil, apperrors.InvalidInput("to must be after from")
	}
	if to.Sub(from) > maxAvailabilityWindow {
		to = from.Add(maxAvailabilityWindow)
	}

	ranges, err := s.booked.ActiveRanges(ctx, roomID, from, to)
	if err != nil {
		s.log.Error("Failed to load booked ranges", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to load availability", err)
	}
	if ranges == nil {
		ranges = []model.DateRange{}
	}
	return &model.Availability{RoomID: roomID, From: from, To: to, Booked: ranges}, nil
}

func (s *roomService) Create(ctx context.Context, in *model.RoomInput) (*model.Room, error) {
	s.sanitize(in)
	if errs := s.validator.ValidateInput(in); errs.Any() {
		s.log.Warn("Room validation failed", "fields", errs)
		return nil, errs.Err("")
	}

	room := roomFromInput(in)
	err := s.rooms.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.rooms.Create(ctx, room); err != nil {
			return err
		}
		return s.images.ReplaceForRoom(ctx, room.ID, imagesFromInput(in))
	})
	if err != nil {
		return nil, s.mapWriteError(err, room.ID, "Failed to create room")
	}

	s.log.Info("Room created", "room_id", room.ID, "room_number", room.RoomNumber)
	return room, nil
}

func (s *roomService) Update(ctx context.Context, id int64, in *model.RoomInput) error {
	s.sanitize(in)
	if errs := s.validator.ValidateInput(in); errs.Any() {
		s.log.Warn("Room validation failed", "room_id", id, "fields", errs)
		return errs.Err("")
	}

	room := roomFromInput(in)
	room.ID = id
	err := s.rooms.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.rooms.Update(ctx, room); err != nil {
			return err
		}
		return s.images.ReplaceForRoom(ctx, id, imagesFromInput(in))
	})
	if err != nil {
		return s.mapWriteError(err, id, "Failed to update room")
	}

	s.log.Info("Room updated", "room_id", id)
	return nil
}

func (s *roomService) Delete(ctx context.Context, id int64) error {
	active, err := s.rooms.HasActiveBookings(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to check room bookings", err)
	}
	if active {
		return apperrors.Conflict("This room has pending or confirmed bookings and cannot be deleted")
	}

	if err := s.rooms.Delete(ctx, id); err != nil {
		if errors.Is(err, roomserrors.ErrRoomInUse) {
			return apperrors.Conflict("This room has booking history; set it to maintenance instead of deleting it")
		}
		return s.mapError(err, id, "Failed to delete room")
	}

	s.log.Info("Room deleted", "room_id", id)
	return nil
}

// --- Helpers ---

func (s *roomService) sanitize(in *model.RoomInput) {
	in.RoomNumber = sanitizer.NormalizeRoomNumber(in.RoomNumber)
	in.Description = sanitizer.NormalizeText(in.Description)
	in.Status = sanitizer.TrimAndNormalize(in.Status)
	if in.Status == "" {
		in.Status = model.RoomStatusAvailable
	}
	in.Images = sanitizer.NormalizeStringSlice(in.Images, sanitizer.TrimAndNormalize)
}

func (s *roomService) mapError(err error, id int64, message string) error {
	switch {
	case errors.Is(err, roomserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Room", strconv.FormatInt(id, 10))
	case errors.Is(err, roomserrors.ErrRoomTypeNotFound):
		return apperrors.NotFound("Room type")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	s.log.Error(message, "room_id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *roomService) mapWriteError(err error, id int64, message string) error {
	switch {
	case errors.Is(err, roomserrors.ErrDuplicateRoomNumber):
		return validation.FieldErrors{"room_number": "Room number is already in use"}.Err("")
	case errors.Is(err, roomserrors.ErrRoomTypeNotFound):
		return validation.FieldErrors{"room_type_id": "Select an existing room type"}.Err("")
	}
	return s.mapError(err, id, message)
}

func roomFromInput(in *model.RoomInput) *model.Room {
	return &model.Room{
		RoomTypeID:    in.RoomTypeID,
		RoomNumber:    in.RoomNumber,
		Floor:         in.Floor,
		PricePerNight: in.PricePerNight,
		Status:        in.Status,
		Description:   in.Description,
		Featured:      in.Featured,
	}
}

func imagesFromInput(in *model.RoomInput) []model.RoomImage {
	images := make([]model.RoomImage, 0, len(in.Images))
	for i, path := range in.Images {
		images = append(images, model.RoomImage{Path: path, IsPrimary: i == 0, SortOrder: i})
	}
	return images
}
