package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	roomserrors "hotelbooking/internal/rooms/errors"
	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/model"
)

const roomTypeColumns = `id, name, description, base_price, max_occupancy, amenities, created_at, updated_at`

type sqliteRoomTypeRepository struct {
	db *sqlite.DB
}

func NewSQLiteRoomTypeRepository(db *sqlite.DB) RoomTypeRepository {
	return &sqliteRoomTypeRepository{db: db}
}

func (r *sqliteRoomTypeRepository) FindAll(ctx context.Context) ([]*model.RoomType, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types ORDER BY base_price, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query room types: %w", err)
	}
	defer rows.Close()

	var types []*model.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode room type: %w", err)
		}
		types = append(types, rt)
	}
	return types, rows.Err()
}

func (r *sqliteRoomTypeRepository) FindByID(ctx context.Context, id int64) (*model.RoomType, error) {
	rt, err := scanRoomType(r.db.Conn(ctx).QueryRowContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roomserrors.ErrRoomTypeNotFound
		}
		return nil, fmt.Errorf("failed to find room type: %w", err)
	}
	return rt, nil
}

func (r *sqliteRoomTypeRepository) Create(ctx context.Context, rt *model.RoomType) error {
	now := time.Now().UTC()
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`INSERT INTO room_types (name, description, base_price, max_occupancy, amenities, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.Name, rt.Description, rt.BasePrice, rt.MaxOccupancy, encodeAmenities(rt.Amenities),
		sqlite.FormatTime(now), sqlite.FormatTime(now))
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return roomserrors.ErrDuplicateRoomType
		}
		return fmt.Errorf("failed to create room type: %w", err)
	}
	if rt.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read room type id: %w", err)
	}
	rt.CreatedAt, rt.UpdatedAt = now, now
	return nil
}

func (r *sqliteRoomTypeRepository) Update(ctx context.Context, rt *model.RoomType) error {
	now := time.Now().UTC()
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE room_types SET name = ?, description = ?, base_price = ?, max_occupancy = ?, amenities = ?, updated_at = ?
		 WHERE id = ?`,
		rt.Name, rt.Description, rt.BasePrice, rt.MaxOccupancy, encodeAmenities(rt.Amenities),
		sqlite.FormatTime(now), rt.ID)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return roomserrors.ErrDuplicateRoomType
		}
		return fmt.Errorf("failed to update room type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roomserrors.ErrRoomTypeNotFound
	}
	rt.UpdatedAt = now
	return nil
}

func (r *sqliteRoomTypeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM room_types WHERE id = ?`, id)
	if err != nil {
		if sqlite.IsForeignKeyViolation(err) {
			return roomserrors.ErrRoomTypeInUse
		}
		return fmt.Errorf("failed to delete room type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roomserrors.ErrRoomTypeNotFound
	}
	return nil
}

func scanRoomType(row rowScanner) (*model.RoomType, error) {
	var rt model.RoomType
	var amenities, created, updated string
	if err := row.Scan(&rt.ID, &rt.Name, &rt.Description, &rt.BasePrice, &rt.MaxOccupancy, &amenities, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if rt.Amenities, err = decodeAmenities(amenities); err != nil {
		return nil, err
	}
	if rt.CreatedAt, err = sqlite.ParseTime(created); err != nil {
		return nil, err
	}
	if rt.UpdatedAt, err = sqlite.ParseTime(updated); err != nil {
		return nil, err
	}
	return &rt, nil
}
