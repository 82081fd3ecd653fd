package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	roomserrors "hotelbooking/internal/rooms/errors"
	"hotelbooking/pkg/contracts"
	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/model"
)

const roomDetailColumns = `r.id, r.room_type_id, r.room_number, r.floor, r.price_per_night, r.status,
	r.description, r.featured, r.created_at, r.updated_at,
	t.id, t.name, t.description, t.base_price, t.max_occupancy, t.amenities, t.created_at, t.updated_at`

const roomDetailFrom = ` FROM rooms r JOIN room_types t ON t.id = r.room_type_id`

type rowScanner interface {
	Scan(dest ...any) error
}

type sqliteRoomRepository struct {
	db *sqlite.DB
}

func NewSQLiteRoomRepository(db *sqlite.DB) RoomRepository {
	return &sqliteRoomRepository{db: db}
}

func (r *sqliteRoomRepository) FindByID(ctx context.Context, id int64) (*model.Room, error) {
	row := r.db.Conn(ctx).QueryRowContext(ctx,
		`SELECT id, room_type_id, room_number, floor, price_per_night, status, description, featured, created_at, updated_at
		 FROM rooms WHERE id = ?`, id)

	var room model.Room
	var created, updated string
	err := row.Scan(&room.ID, &room.RoomTypeID, &room.RoomNumber, &room.Floor, &room.PricePerNight,
		&room.Status, &room.Description, &room.Featured, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roomserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	if room.CreatedAt, err = sqlite.ParseTime(created); err != nil {
		return nil, err
	}
	if room.UpdatedAt, err = sqlite.ParseTime(updated); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *sqliteRoomRepository) FindDetail(ctx context.Context, id int64) (*model.RoomDetail, error) {
	row := r.db.Conn(ctx).QueryRowContext(ctx, `SELECT `+roomDetailColumns+roomDetailFrom+` WHERE r.id = ?`, id)
	detail, err := scanRoomDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roomserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	if err := r.attachImages(ctx, []*model.RoomDetail{detail}); err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *sqliteRoomRepository) FindAll(ctx context.Context, filter model.RoomFilter, limit int, offset int64) ([]*model.RoomDetail, error) {
	where, args := roomFilterClause(filter)
	query := `SELECT ` + roomDetailColumns + roomDetailFrom + where +
		` ORDER BY r.featured DESC, r.room_number LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	return r.queryDetails(ctx, query, args...)
}

func (r *sqliteRoomRepository) Count(ctx context.Context, filter model.RoomFilter) (int64, error) {
	where, args := roomFilterClause(filter)
	var count int64
	err := r.db.Conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*)`+roomDetailFrom+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	return count, nil
}

func (r *sqliteRoomRepository) FindFeatured(ctx context.Context, limit int) ([]*model.RoomDetail, error) {
	return r.FindAll(ctx, model.RoomFilter{FeaturedOnly: true, Status: model.RoomStatusAvailable}, limit, 0)
}

func (r *sqliteRoomRepository) SearchAvailable(ctx context.Context, c model.AvailabilityCriteria) ([]*model.RoomDetail, error) {
	conds := []string{"r.status != ?"}
	args := []any{model.RoomStatusMaintenance}

	if c.RoomTypeID > 0 {
		conds = append(conds, "r.room_type_id = ?")
		args = append(args, c.RoomTypeID)
	}
	if c.Guests > 0 {
		conds = append(conds, "t.max_occupancy >= ?")
		args = append(args, c.Guests)
	}
	if c.HasDates() {
		conds = append(conds, `NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.room_id = r.id AND b.status IN (?, ?)
			  AND b.check_in < ? AND ? < b.check_out)`)
		args = append(args, model.BookingStatusPending, model.BookingStatusConfirmed,
			sqlite.FormatDate(c.CheckOut), sqlite.FormatDate(c.CheckIn))
	}

	query := `SELECT ` + roomDetailColumns + roomDetailFrom +
		` WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY t.base_price, r.room_number`
	return r.queryDetails(ctx, query, args...)
}

func (r *sqliteRoomRepository) Create(ctx context.Context, room *model.Room) error {
	now := time.Now().UTC()
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`INSERT INTO rooms (room_type_id, room_number, floor, price_per_night, status, description, featured, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.RoomTypeID, room.RoomNumber, room.Floor, room.PricePerNight, room.Status,
		room.Description, room.Featured, sqlite.FormatTime(now), sqlite.FormatTime(now))
	if err != nil {
		return mapRoomWriteError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read room id: %w", err)
	}
	room.ID = id
	room.CreatedAt = now
	room.UpdatedAt = now
	return nil
}

func (r *sqliteRoomRepository) Update(ctx context.Context, room *model.Room) error {
	now := time.Now().UTC()
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE rooms SET room_type_id = ?, room_number = ?, floor = ?, price_per_night = ?, status = ?,
		 description = ?, featured = ?, updated_at = ? WHERE id = ?`,
		room.RoomTypeID, room.RoomNumber, room.Floor, room.PricePerNight, room.Status,
		room.Description, room.Featured, sqlite.FormatTime(now), room.ID)
	if err != nil {
		return mapRoomWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roomserrors.ErrNotFound
	}
	room.UpdatedAt = now
	return nil
}

func (r *sqliteRoomRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?`,
		status, sqlite.FormatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roomserrors.ErrNotFound
	}
	return nil
}

func (r *sqliteRoomRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		if sqlite.IsForeignKeyViolation(err) {
			return roomserrors.ErrRoomInUse
		}
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roomserrors.ErrNotFound
	}
	return nil
}

func (r *sqliteRoomRepository) HasActiveBookings(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE room_id = ? AND status IN (?, ?))`,
		id, model.BookingStatusPending, model.BookingStatusConfirmed).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check room bookings: %w", err)
	}
	return exists, nil
}

func (r *sqliteRoomRepository) ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error {
	return r.db.WithTx(ctx, fn)
}

func (r *sqliteRoomRepository) queryDetails(ctx context.Context, query string, args ...any) ([]*model.RoomDetail, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var details []*model.RoomDetail
	for rows.Next() {
		d, err := scanRoomDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode room: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	// The connection must be free before the images query runs.
	rows.Close()

	if err := r.attachImages(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *sqliteRoomRepository) attachImages(ctx context.Context, details []*model.RoomDetail) error {
	if len(details) == 0 {
		return nil
	}

	byRoom := make(map[int64]*model.RoomDetail, len(details))
	placeholders := make([]string, 0, len(details))
	args := make([]any, 0, len(details))
	for _, d := range details {
		byRoom[d.ID] = d
		placeholders = append(placeholders, "?")
		args = append(args, d.ID)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx,
		`SELECT id, room_id, path, caption, is_primary, sort_order, created_at FROM room_images
		 WHERE room_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY room_id, sort_order, id`, args...)
	if err != nil {
		return fmt.Errorf("failed to load room images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return fmt.Errorf("failed to decode room image: %w", err)
		}
		if d, ok := byRoom[img.RoomID]; ok {
			d.Images = append(d.Images, img)
		}
	}
	return rows.Err()
}

func scanRoomDetail(row rowScanner) (*model.RoomDetail, error) {
	var d model.RoomDetail
	var roomCreated, roomUpdated, typeCreated, typeUpdated, amenities string
	err := row.Scan(
		&d.ID, &d.RoomTypeID, &d.RoomNumber, &d.Floor, &d.PricePerNight, &d.Status,
		&d.Description, &d.Featured, &roomCreated, &roomUpdated,
		&d.Type.ID, &d.Type.Name, &d.Type.Description, &d.Type.BasePrice, &d.Type.MaxOccupancy,
		&amenities, &typeCreated, &typeUpdated,
	)
	if err != nil {
		return nil, err
	}
	if d.CreatedAt, err = sqlite.ParseTime(roomCreated); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = sqlite.ParseTime(roomUpdated); err != nil {
		return nil, err
	}
	if d.Type.CreatedAt, err = sqlite.ParseTime(typeCreated); err != nil {
		return nil, err
	}
	if d.Type.UpdatedAt, err = sqlite.ParseTime(typeUpdated); err != nil {
		return nil, err
	}
	if d.Type.Amenities, err = decodeAmenities(amenities); err != nil {
		return nil, err
	}
	return &d, nil
}

func roomFilterClause(f model.RoomFilter) (string, []any) {
	var conds []string
	var args []any
	if f.RoomTypeID > 0 {
		conds = append(conds, "r.room_type_id = ?")
		args = append(args, f.RoomTypeID)
	}
	if f.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, f.Status)
	}
	if f.FeaturedOnly {
		conds = append(conds, "r.featured = 1")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func mapRoomWriteError(err error) error {
	switch {
	case sqlite.IsUniqueViolation(err):
		return roomserrors.ErrDuplicateRoomNumber
	case sqlite.IsForeignKeyViolation(err):
		return roomserrors.ErrRoomTypeNotFound
	}
	return fmt.Errorf("failed to write room: %w", err)
}

func decodeAmenities(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("invalid stored amenities: %w", err)
	}
	return out, nil
}

func encodeAmenities(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}
