package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingserrors "hotelbooking/internal/bookings/errors"
	"hotelbooking/pkg/contracts"
	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/model"
)

const bookingColumns = `b.id, b.reference, b.room_id, b.user_id, b.guest_name, b.guest_email, b.guest_phone,
	b.check_in, b.check_out, b.guests, b.total_price, b.status, b.special_requests, b.created_at, b.updated_at`

const bookingDetailColumns = bookingColumns + `,
	COALESCE(r.room_number, ''), COALESCE(t.name, ''),
	COALESCE((SELECT i.path FROM room_images i WHERE i.room_id = b.room_id
	          ORDER BY i.is_primary DESC, i.sort_order, i.id LIMIT 1), '')`

const bookingDetailFrom = ` FROM bookings b
	LEFT JOIN rooms r ON r.id = b.room_id
	LEFT JOIN room_types t ON t.id = r.room_type_id`

type rowScanner interface {
	Scan(dest ...any) error
}

type sqliteBookingRepository struct {
	db *sqlite.DB
}

func NewSQLiteBookingRepository(db *sqlite.DB) BookingRepository {
	return &sqliteBookingRepository{db: db}
}

func (r *sqliteBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`INSERT INTO bookings (reference, room_id, user_id, guest_name, guest_email, guest_phone,
		 check_in, check_out, guests, total_price, status, special_requests, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Reference, b.RoomID, b.UserID, b.GuestName, b.GuestEmail, b.GuestPhone,
		sqlite.FormatDate(b.CheckIn), sqlite.FormatDate(b.CheckOut), b.Guests, b.TotalPrice,
		b.Status, b.SpecialRequests, sqlite.FormatTime(now), sqlite.FormatTime(now))
	if err != nil {
		switch {
		case sqlite.IsUniqueViolation(err):
			return bookingserrors.ErrDuplicateReference
		case sqlite.IsForeignKeyViolation(err):
			return bookingserrors.ErrRoomNotFound
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read booking id: %w", err)
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func (r *sqliteBookingRepository) FindByID(ctx context.Context, id int64) (*model.Booking, error) {
	row := r.db.Conn(ctx).QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return b, nil
}

func (r *sqliteBookingRepository) FindDetail(ctx context.Context, id int64) (*model.BookingDetail, error) {
	return r.findOneDetail(ctx, `b.id = ?`, id)
}

func (r *sqliteBookingRepository) FindByReference(ctx context.Context, reference string) (*model.BookingDetail, error) {
	return r.findOneDetail(ctx, `b.reference = ?`, reference)
}

func (r *sqliteBookingRepository) findOneDetail(ctx context.Context, cond string, arg any) (*model.BookingDetail, error) {
	row := r.db.Conn(ctx).QueryRowContext(ctx, `SELECT `+bookingDetailColumns+bookingDetailFrom+` WHERE `+cond, arg)
	d, err := scanBookingDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return d, nil
}

func (r *sqliteBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingDetail, error) {
	where, args := bookingFilterClause(filter)
	query := `SELECT ` + bookingDetailColumns + bookingDetailFrom + where + ` ORDER BY b.created_at DESC, b.id DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var details []*model.BookingDetail
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return details, nil
}

func (r *sqliteBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	where, args := bookingFilterClause(filter)
	var count int64
	if err := r.db.Conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings b`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *sqliteBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64, len(model.BookingStatuses))
	for _, s := range model.BookingStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to decode booking count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *sqliteBookingRepository) HasConflict(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE room_id = ? AND status IN (?, ?) AND id != ?
			  AND check_in < ? AND ? < check_out)`,
		roomID, model.BookingStatusPending, model.BookingStatusConfirmed, excludeID,
		sqlite.FormatDate(checkOut), sqlite.FormatDate(checkIn)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check booking conflicts: %w", err)
	}
	return exists, nil
}

func (r *sqliteBookingRepository) ActiveRanges(ctx context.Context, roomID int64, from, to time.Time) ([]model.DateRange, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx,
		`SELECT check_in, check_out FROM bookings
		 WHERE room_id = ? AND status IN (?, ?) AND check_in < ? AND ? < check_out
		 ORDER BY check_in`,
		roomID, model.BookingStatusPending, model.BookingStatusConfirmed,
		sqlite.FormatDate(to), sqlite.FormatDate(from))
	if err != nil {
		return nil, fmt.Errorf("failed to find booked ranges: %w", err)
	}
	defer rows.Close()

	var ranges []model.DateRange
	for rows.Next() {
		var in, out string
		if err := rows.Scan(&in, &out); err != nil {
			return nil, fmt.Errorf("failed to decode booked range: %w", err)
		}
		var dr model.DateRange
		if dr.CheckIn, err = sqlite.ParseDate(in); err != nil {
			return nil, err
		}
		if dr.CheckOut, err = sqlite.ParseDate(out); err != nil {
			return nil, err
		}
		ranges = append(ranges, dr)
	}
	return ranges, rows.Err()
}

func (r *sqliteBookingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	from := model.AllowedFrom(status)
	if len(from) == 0 {
		return bookingserrors.ErrInvalidTransition
	}

	args := []any{status, sqlite.FormatTime(time.Now()), id}
	for _, s := range from {
		args = append(args, s)
	}
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN (`+placeholders(len(from))+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *sqliteBookingRepository) UpdateDates(ctx context.Context, id int64, checkIn, checkOut time.Time, totalPrice int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE bookings SET check_in = ?, check_out = ?, total_price = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		sqlite.FormatDate(checkIn), sqlite.FormatDate(checkOut), totalPrice, sqlite.FormatTime(time.Now()),
		id, model.BookingStatusPending, model.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to reschedule booking: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *sqliteBookingRepository) ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error {
	return r.db.WithTx(ctx, fn)
}

func (r *sqliteBookingRepository) missingOrStale(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.Conn(ctx).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to find booking: %w", err)
	}
	if !exists {
		return bookingserrors.ErrNotFound
	}
	return bookingserrors.ErrInvalidTransition
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var in, out, created, updated string
	err := row.Scan(&b.ID, &b.Reference, &b.RoomID, &b.UserID, &b.GuestName, &b.GuestEmail, &b.GuestPhone,
		&in, &out, &b.Guests, &b.TotalPrice, &b.Status, &b.SpecialRequests, &created, &updated)
	if err != nil {
		return nil, err
	}
	if err := parseBookingTimes(&b, in, out, created, updated); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBookingDetail(row rowScanner) (*model.BookingDetail, error) {
	var d model.BookingDetail
	var in, out, created, updated string
	err := row.Scan(&d.ID, &d.Reference, &d.RoomID, &d.UserID, &d.GuestName, &d.GuestEmail, &d.GuestPhone,
		&in, &out, &d.Guests, &d.TotalPrice, &d.Status, &d.SpecialRequests, &created, &updated,
		&d.RoomNumber, &d.RoomTypeName, &d.ImagePath)
	if err != nil {
		return nil, err
	}
	if err := parseBookingTimes(&d.Booking, in, out, created, updated); err != nil {
		return nil, err
	}
	return &d, nil
}

func parseBookingTimes(b *model.Booking, in, out, created, updated string) error {
	var err error
	if b.CheckIn, err = sqlite.ParseDate(in); err != nil {
		return err
	}
	if b.CheckOut, err = sqlite.ParseDate(out); err != nil {
		return err
	}
	if b.CreatedAt, err = sqlite.ParseTime(created); err != nil {
		return err
	}
	b.UpdatedAt, err = sqlite.ParseTime(updated)
	return err
}

func bookingFilterClause(f model.BookingFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "b.status = ?")
		args = append(args, f.Status)
	}
	if f.RoomID > 0 {
		conds = append(conds, "b.room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.UserID > 0 {
		conds = append(conds, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
