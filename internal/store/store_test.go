package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/schedule"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return gdb, mock
}

func TestLoadEvent(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `events`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ministry_id", "title"}).AddRow("E1", "M1", "Retiro"))
	mock.ExpectQuery("SELECT \\* FROM `event_leaders`").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "user_id"}).AddRow("E1", "U1").AddRow("E1", "U2"))

	ev, facts, err := LoadEvent(context.Background(), gdb, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Retiro", ev.Title)
	assert.Equal(t, authz.ResourceFacts{MinistryID: "M1", LeaderUserIDs: []string{"U1", "U2"}}, facts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadEvent_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `events`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err := LoadEvent(context.Background(), gdb, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMember_UsesGroupLeaders(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `members`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ministry_id", "small_group_id", "name"}).AddRow("P1", "M1", "G1", "Ana"))
	mock.ExpectQuery("SELECT `user_id` FROM `small_group_leaders`").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("U5"))

	m, facts, err := LoadMember(context.Background(), gdb, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", m.Name)
	assert.Equal(t, "M1", facts.MinistryID)
	assert.Equal(t, []string{"U5"}, facts.LeaderUserIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMember_WithoutGroup(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `members`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ministry_id", "name"}).AddRow("P1", "M1", "Ana"))

	_, facts, err := LoadMember(context.Background(), gdb, "P1")
	require.NoError(t, err)
	assert.Empty(t, facts.LeaderUserIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadUser_PrefersMasterMinistry(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "ministry_id", "master_ministry_id"}).
			AddRow("U1", "m@example.com", "MASTER", "M2", "M1"))

	_, facts, err := LoadUser(context.Background(), gdb, "U1")
	require.NoError(t, err)
	assert.Equal(t, "M1", facts.MinistryID)
	assert.Equal(t, "MASTER", facts.AccountRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPrincipal_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := LoadPrincipal(context.Background(), gdb, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScoped(t *testing.T) {
	gdb, _ := newMockDB(t)
	dry := gdb.Session(&gorm.Session{DryRun: true})

	sql := func(scope authz.ListScope) string {
		var out []models.Event
		stmt := Scoped(dry.Model(&models.Event{}), scope, "ministry_id").Find(&out).Statement
		return stmt.SQL.String()
	}

	assert.NotContains(t, sql(authz.ListScope{All: true}), "WHERE")
	assert.Contains(t, sql(authz.ListScope{}), "1 = 0")
	assert.Contains(t, sql(authz.ListScope{MinistryIDs: []string{"M1", "M2"}}), "ministry_id IN (?,?)")

	var users []models.User
	stmt := Scoped(dry.Model(&models.User{}), authz.ListScope{MinistryIDs: []string{"M1"}}, "ministry_id", "master_ministry_id").
		Find(&users).Statement
	assert.Contains(t, stmt.SQL.String(), "(ministry_id IN (?) OR master_ministry_id IN (?))")
}

func TestCreateMeetings(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `meetings`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	day := time.Date(2026, time.October, 21, 0, 0, 0, 0, time.UTC)
	occ := []schedule.Occurrence{
		{Date: day, StartTime: "19:30", EndTime: "21:00", Location: "Rua A, 10"},
		{Date: day.AddDate(0, 0, 7), StartTime: "19:30", EndTime: "21:00", Location: "Rua A, 10"},
	}
	got, err := CreateMeetings(context.Background(), gdb, "G1", occ)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.Equal(t, "G1", m.SmallGroupID)
		assert.Equal(t, models.MeetingScheduled, m.Status)
		assert.NotEmpty(t, m.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMeetings_EmptyWritesNothing(t *testing.T) {
	gdb, mock := newMockDB(t)
	got, err := CreateMeetings(context.Background(), gdb, "G1", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceEventLeaders(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `event_leaders`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `event_leaders`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, ReplaceEventLeaders(context.Background(), gdb, "E1", []string{"U1", "U2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceGroupLeaders_Clear(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `small_group_leaders`").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, ReplaceGroupLeaders(context.Background(), gdb, "G1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmedRegistrations(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `event_registrations`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := ConfirmedRegistrations(context.Background(), gdb, "E1")
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
