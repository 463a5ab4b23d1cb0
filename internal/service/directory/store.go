// Package directory reads residents, rooms and tenancies owned by the
// dormitory records system. It never writes.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"dormbot/internal/models"
	"dormbot/internal/storage"
)

var ErrNotFound = errors.New("record not found")

// DateField is a tenancy contract date column.
type DateField string

const (
	StartDate DateField = "start_date"
	EndDate   DateField = "end_date"
)

// TenancyDetail is a tenancy with its room number and tenant name.
type TenancyDetail struct {
	models.Tenancy
	RoomNumber string `db:"room_number"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
}

func (t TenancyDetail) TenantName() string {
	return models.User{FirstName: t.FirstName, LastName: t.LastName}.FullName()
}

// Resident is a user with their current tenancy, if any.
type Resident struct {
	models.User
	Tenancy *TenancyDetail
}

var (
	userColumns    = []string{"id", "first_name", "last_name", "email", "phone"}
	roomColumns    = []string{"id", "room_number", "capacity", "occupancy", "price", "has_aircon", "has_wifi", "has_bathroom"}
	tenancyColumns = []string{
		"t.id", "t.user_id", "t.room_id", "t.rent", "t.start_date", "t.end_date", "t.payment_status", "t.status",
		"r.room_number", "u.first_name", "u.last_name",
	}
)

type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database. dbType is the configured database key.
func NewStore(db *sql.DB, dbType string) *Store {
	return &Store{db: sqlx.NewDb(db, storage.DriverName(dbType))}
}

func errorSQLBuild(err error) error {
	return fmt.Errorf("build sql query: %w", err)
}

func tenancyQuery() sq.SelectBuilder {
	return sq.Select(tenancyColumns...).
		From("tenancies t").
		Join("rooms r ON r.id = t.room_id").
		Join("users u ON u.id = t.user_id")
}

// FindUsersByName matches first and/or last name exactly, ignoring case.
// An empty name part is not constrained.
func (s *Store) FindUsersByName(ctx context.Context, first, last string) ([]Resident, error) {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" && last == "" {
		return nil, errors.New("first or last name is required")
	}

	query := sq.Select(userColumns...).From("users").OrderBy("id")
	if first != "" {
		query = query.Where(sq.Expr("LOWER(first_name) = LOWER(?)", first))
	}
	if last != "" {
		query = query.Where(sq.Expr("LOWER(last_name) = LOWER(?)", last))
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}

	var users []models.User
	if err := s.db.SelectContext(ctx, &users, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("find users by name: %w", err)
	}
	return s.residents(ctx, users)
}

// GetUser loads one resident by id.
func (s *Store) GetUser(ctx context.Context, id string) (*Resident, error) {
	sqlStr, args, err := sq.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": strings.TrimSpace(id)}).
		ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}

	var user models.User
	if err := s.db.GetContext(ctx, &user, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	residents, err := s.residents(ctx, []models.User{user})
	if err != nil {
		return nil, err
	}
	return &residents[0], nil
}

func (s *Store) residents(ctx context.Context, users []models.User) ([]Resident, error) {
	out := make([]Resident, 0, len(users))
	for _, u := range users {
		tenancy, err := s.currentTenancy(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Resident{User: u, Tenancy: tenancy})
	}
	return out, nil
}

// currentTenancy returns the user's active tenancy with the latest start, or
// nil when the user has none.
func (s *Store) currentTenancy(ctx context.Context, userID string) (*TenancyDetail, error) {
	sqlStr, args, err := tenancyQuery().
		Where(sq.Eq{"t.user_id": userID, "t.status": string(models.TenancyActive)}).
		OrderBy("t.start_date DESC", "t.id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}

	var t TenancyDetail
	if err := s.db.GetContext(ctx, &t, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current tenancy: %w", err)
	}
	return &t, nil
}

// FindRoomsByNumber returns every room with the given number.
func (s *Store) FindRoomsByNumber(ctx context.Context, number string) ([]models.Room, error) {
	sqlStr, args, err := sq.Select(roomColumns...).
		From("rooms").
		Where(sq.Expr("LOWER(room_number) = LOWER(?)", strings.TrimSpace(number))).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}

	var rooms []models.Room
	if err := s.db.SelectContext(ctx, &rooms, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	return rooms, nil
}

// CurrentTenants lists the active tenancies of a room.
func (s *Store) CurrentTenants(ctx context.Context, roomID string) ([]TenancyDetail, error) {
	sqlStr, args, err := tenancyQuery().
		Where(sq.Eq{"t.room_id": roomID, "t.status": string(models.TenancyActive)}).
		OrderBy("t.start_date", "t.id").
		ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}

	var tenants []TenancyDetail
	if err := s.db.SelectContext(ctx, &tenants, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list current tenants: %w", err)
	}
	return tenants, nil
}

// FindTenancyByDate returns the first tenancy whose contract date falls on day.
func (s *Store) FindTenancyByDate(ctx context.Context, field DateField, day time.Time) (*TenancyDetail, error) {
	if field != StartDate && field != EndDate {
		return nil, fmt.Errorf("unsupported date field %q", field)
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	column := "t." + string(field)

	sqlStr, args, err := tenancyQuery().
		Where(sq.GtOrEq{column: from}).
		Where(sq.Lt{column: from.AddDate(0, 0, 1)}).
		OrderBy("t.id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}
	return s.getTenancy(ctx, sqlStr, args)
}

// FindTenancyByStatus returns the first tenancy with the given payment status,
// ignoring case.
func (s *Store) FindTenancyByStatus(ctx context.Context, status string) (*TenancyDetail, error) {
	sqlStr, args, err := tenancyQuery().
		Where(sq.Expr("LOWER(t.payment_status) = LOWER(?)", strings.TrimSpace(status))).
		OrderBy("t.id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, errorSQLBuild(err)
	}
	return s.getTenancy(ctx, sqlStr, args)
}

func (s *Store) getTenancy(ctx context.Context, sqlStr string, args []interface{}) (*TenancyDetail, error) {
	var t TenancyDetail
	if err := s.db.GetContext(ctx, &t, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenancy: %w", err)
	}
	return &t, nil
}
