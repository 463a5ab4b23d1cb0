package directory

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"dormbot/internal/config"
	"dormbot/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func openSeededStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: filepath.Join(t.TempDir(), "directory.db")},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db, "sqlite3"))
	t.Cleanup(func() { db.Close() })

	exec := func(q string, args ...interface{}) {
		t.Helper()
		_, err := db.Exec(q, args...)
		require.NoError(t, err)
	}
	exec(`INSERT INTO users (id, first_name, last_name, email, phone) VALUES
		('u1', 'Ana', 'Cruz', 'ana1@example.com', '9171234567'),
		('u2', 'Ana', 'Cruz', 'ana2@example.com', '9179999999'),
		('u3', 'Ben', 'Reyes', 'ben@example.com', '9170000000'),
		('u4', 'Carla', 'Reyes', 'carla@example.com', '')`)
	exec(`INSERT INTO rooms (id, room_number, capacity, occupancy, price, has_aircon, has_wifi, has_bathroom) VALUES
		('r1', '204', 4, 2, 5500, 1, 0, 1),
		('r2', '105', 2, 0, 4000, 0, 1, 0)`)
	exec(`INSERT INTO tenancies (id, user_id, room_id, rent, start_date, end_date, payment_status, status) VALUES
		('t1', 'u1', 'r1', 5500, ?, ?, 'Paid', 'active'),
		('t2', 'u3', 'r1', 5500, ?, NULL, 'Unpaid', 'active'),
		('t3', 'u3', 'r2', 4000, ?, ?, 'Paid', 'ended')`,
		day(2024, time.November, 3), day(2025, time.May, 3),
		day(2025, time.January, 15),
		day(2023, time.June, 1), day(2024, time.June, 1),
	)
	return NewStore(db, "sqlite3"), db
}

func TestFindUsersByName(t *testing.T) {
	store, _ := openSeededStore(t)
	ctx := context.Background()

	both, err := store.FindUsersByName(ctx, "ana", "CRUZ")
	require.NoError(t, err)
	require.Len(t, both, 2)
	assert.Equal(t, "u1", both[0].ID)
	require.NotNil(t, both[0].Tenancy)
	assert.Equal(t, "204", both[0].Tenancy.RoomNumber)
	assert.Equal(t, "Paid", both[0].Tenancy.PaymentStatus)
	require.NotNil(t, both[0].Tenancy.StartDate)
	assert.True(t, both[0].Tenancy.StartDate.Equal(day(2024, time.November, 3)))
	assert.Nil(t, both[1].Tenancy)

	lastOnly, err := store.FindUsersByName(ctx, "", "Reyes")
	require.NoError(t, err)
	assert.Len(t, lastOnly, 2)

	firstOnly, err := store.FindUsersByName(ctx, "Ben", "")
	require.NoError(t, err)
	require.Len(t, firstOnly, 1)
	require.NotNil(t, firstOnly[0].Tenancy)
	assert.Equal(t, "t2", firstOnly[0].Tenancy.ID, "ended tenancies are not current")
	assert.Nil(t, firstOnly[0].Tenancy.EndDate)

	none, err := store.FindUsersByName(ctx, "Zed", "")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.FindUsersByName(ctx, " ", "")
	assert.Error(t, err)
}

func TestGetUser(t *testing.T) {
	store, _ := openSeededStore(t)
	ctx := context.Background()

	r, err := store.GetUser(ctx, "u4")
	require.NoError(t, err)
	assert.Equal(t, "Carla Reyes", r.FullName())
	assert.Nil(t, r.Tenancy)

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoomsAndTenants(t *testing.T) {
	store, _ := openSeededStore(t)
	ctx := context.Background()

	rooms, err := store.FindRoomsByNumber(ctx, "204")
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	room := rooms[0]
	assert.Equal(t, 4, room.Capacity)
	assert.True(t, room.HasAircon)
	assert.False(t, room.HasWifi)
	assert.True(t, room.HasBathroom)
	assert.InDelta(t, 5500, room.Price, 0.001)

	tenants, err := store.CurrentTenants(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "Ana Cruz", tenants[0].TenantName())
	assert.Equal(t, "Ben Reyes", tenants[1].TenantName())

	empty, err := store.CurrentTenants(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, empty)

	none, err := store.FindRoomsByNumber(ctx, "999")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindTenancyByDate(t *testing.T) {
	store, _ := openSeededStore(t)
	ctx := context.Background()

	got, err := store.FindTenancyByDate(ctx, StartDate, time.Date(2024, time.November, 3, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, "Ana Cruz", got.TenantName())

	got, err = store.FindTenancyByDate(ctx, EndDate, day(2024, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, "t3", got.ID)
	assert.Equal(t, "105", got.RoomNumber)

	_, err = store.FindTenancyByDate(ctx, StartDate, day(2030, time.January, 1))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindTenancyByDate(ctx, DateField("rent"), day(2024, time.June, 1))
	assert.Error(t, err)
}

func TestFindTenancyByStatus(t *testing.T) {
	store, _ := openSeededStore(t)
	ctx := context.Background()

	got, err := store.FindTenancyByStatus(ctx, "unpaid")
	require.NoError(t, err)
	assert.Equal(t, "t2", got.ID)

	got, err = store.FindTenancyByStatus(ctx, "PAID")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	_, err = store.FindTenancyByStatus(ctx, "overdue")
	assert.ErrorIs(t, err, ErrNotFound)
}
