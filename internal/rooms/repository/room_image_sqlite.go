package repository

import (
	"context"
	"fmt"
	"time"

	roomserrors "hotelbooking/internal/rooms/errors"
	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/model"
)

type sqliteRoomImageRepository struct {
	db *sqlite.DB
}

func NewSQLiteRoomImageRepository(db *sqlite.DB) RoomImageRepository {
	return &sqliteRoomImageRepository{db: db}
}

func (r *sqliteRoomImageRepository) FindByRoom(ctx context.Context, roomID int64) ([]model.RoomImage, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx,
		`SELECT id, room_id, path, caption, is_primary, sort_order, created_at FROM room_images
		 WHERE room_id = ? ORDER BY sort_order, id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query room images: %w", err)
	}
	defer rows.Close()

	var images []model.RoomImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode room image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *sqliteRoomImageRepository) ReplaceForRoom(ctx context.Context, roomID int64, images []model.RoomImage) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)
		if _, err := conn.ExecContext(ctx, `DELETE FROM room_images WHERE room_id = ?`, roomID); err != nil {
			return fmt.Errorf("failed to clear room images: %w", err)
		}

		now := sqlite.FormatTime(time.Now())
		for i := range images {
			img := &images[i]
			img.RoomID = roomID
			res, err := conn.ExecContext(ctx,
				`INSERT INTO room_images (room_id, path, caption, is_primary, sort_order, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
				roomID, img.Path, img.Caption, img.IsPrimary, img.SortOrder, now)
			if err != nil {
				if sqlite.IsForeignKeyViolation(err) {
					return roomserrors.ErrNotFound
				}
				return fmt.Errorf("failed to insert room image: %w", err)
			}
			img.ID, _ = res.LastInsertId()
		}
		return nil
	})
}

func (r *sqliteRoomImageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM room_images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roomserrors.ErrImageNotFound
	}
	return nil
}

func scanImage(row rowScanner) (model.RoomImage, error) {
	var img model.RoomImage
	var created string
	if err := row.Scan(&img.ID, &img.RoomID, &img.Path, &img.Caption, &img.IsPrimary, &img.SortOrder, &created); err != nil {
		return img, err
	}
	var err error
	img.CreatedAt, err = sqlite.ParseTime(created)
	return img, err
}
