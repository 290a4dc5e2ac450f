package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/auth"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
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

func newPrincipal(id, role, ministry, master string) *store.Principal {
	return &store.Principal{
		User:   &models.User{ID: id, Name: id, Email: id + "@example.com", Role: role, Status: models.UserActive},
		Record: authz.ActorRecord{ID: id, Role: role, MinistryID: ministry, MasterMinistryID: master},
	}
}

func newEngine(t *testing.T, p *store.Principal) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())
	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetPrincipal(c, p)
		c.Next()
	})
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func expectActivity(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `activities`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func eventRows() (*sqlmock.Rows, *sqlmock.Rows) {
	return sqlmock.NewRows([]string{"id", "ministry_id", "title", "status"}).AddRow("E1", "M1", "Retiro", models.EventOpen),
		sqlmock.NewRows([]string{"event_id", "user_id"}).AddRow("E1", "U9")
}

func TestRequire_LeaderCannotEditUnledEvent(t *testing.T) {
	gdb, mock := newMockDB(t)
	ev, leaders := eventRows()
	mock.ExpectQuery("SELECT \\* FROM `events`").WillReturnRows(ev)
	mock.ExpectQuery("SELECT \\* FROM `event_leaders`").WillReturnRows(leaders)

	r := newEngine(t, newPrincipal("U1", "LEADER", "M1", ""))
	r.PUT("/events/:id", Load(gdb, "id", store.Typed(store.LoadEvent)), Require(authz.KindEvent, authz.ActionEdit),
		func(c *gin.Context) { t.Fatal("handler must not run") })

	w := do(r, http.MethodPut, "/events/E1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden","reason":"not_resource_leader","permission":"event:edit"}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEvent_LeaderSeesPermissions(t *testing.T) {
	gdb, mock := newMockDB(t)
	ev, leaders := eventRows()
	mock.ExpectQuery("SELECT \\* FROM `events`").WillReturnRows(ev)
	mock.ExpectQuery("SELECT \\* FROM `event_leaders`").WillReturnRows(leaders)

	r := newEngine(t, newPrincipal("U1", "LEADER", "M1", ""))
	r.GET("/events/:id", Load(gdb, "id", store.Typed(store.LoadEvent)), Require(authz.KindEvent, authz.ActionView), GetEvent())

	w := do(r, http.MethodGet, "/events/E1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Permissions map[string]bool `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Permissions["view"])
	assert.True(t, body.Permissions["register"])
	assert.False(t, body.Permissions["edit"])
	assert.False(t, body.Permissions["delete"])
}

func TestLoad_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `events`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r := newEngine(t, newPrincipal("A", "ADMIN", "", ""))
	r.GET("/events/:id", Load(gdb, "id", store.Typed(store.LoadEvent)), Require(authz.KindEvent, authz.ActionView), GetEvent())

	w := do(r, http.MethodGet, "/events/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateEvent_OutsideMinistry(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := newEngine(t, newPrincipal("U1", "LEADER", "M1", ""))
	r.POST("/events", CreateEvent(gdb, &activity.Recorder{DB: gdb}))

	w := do(r, http.MethodPost, "/events", map[string]any{
		"ministry_id": "M2",
		"title":       "Culto",
		"starts_at":   "2026-11-01T19:00:00Z",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "outside_ministry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTransaction_LeaderDenied(t *testing.T) {
	gdb, _ := newMockDB(t)
	r := newEngine(t, newPrincipal("U1", "LEADER", "M1", ""))
	r.POST("/finances", CreateTransaction(gdb, &activity.Recorder{DB: gdb}))

	w := do(r, http.MethodPost, "/finances", map[string]any{"ministry_id": "M1", "type": "INCOME", "amount": 1000})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "role_not_allowed")
}

func TestCreateUser_MasterCannotGrantMaster(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := newEngine(t, newPrincipal("M", "MASTER", "", "M1"))
	r.POST("/users", CreateUser(gdb, &activity.Recorder{DB: gdb}))

	w := do(r, http.MethodPost, "/users", map[string]any{
		"email":              "new@example.com",
		"name":               "Novo",
		"password":           "longenough",
		"role":               "MASTER",
		"master_ministry_id": "M1",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "role_not_allowed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSmallGroup_GeneratesMeetings(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `small_groups`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SAVEPOINT").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `small_group_leaders`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `meetings`").WillReturnResult(sqlmock.NewResult(0, 13))
	mock.ExpectCommit()
	expectActivity(mock)

	today := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	r := newEngine(t, newPrincipal("M", "MASTER", "", "M1"))
	r.POST("/small-groups", CreateSmallGroup(gdb, &activity.Recorder{DB: gdb}, func() time.Time { return today }))

	w := do(r, http.MethodPost, "/small-groups", map[string]any{
		"ministry_id": "M1",
		"name":        "Célula Centro",
		"street":      "Rua A",
		"number":      "10",
		"frequency":   "SEMANAL",
		"day_of_week": "QUARTA",
		"start_time":  "19:30",
		"end_time":    "21:00",
		"start_date":  "2026-10-19",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		MeetingsCreated int `json:"meetings_created"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 13, body.MeetingsCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSmallGroup_RejectsBadClock(t *testing.T) {
	gdb, _ := newMockDB(t)
	r := newEngine(t, newPrincipal("A", "ADMIN", "", ""))
	r.POST("/small-groups", CreateSmallGroup(gdb, &activity.Recorder{DB: gdb}, time.Now))

	w := do(r, http.MethodPost, "/small-groups", map[string]any{
		"ministry_id": "M1",
		"name":        "Célula",
		"frequency":   "SEMANAL",
		"day_of_week": "QUARTA",
		"start_time":  "7pm",
		"start_date":  "2026-10-19",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterSelf_Full(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `events`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ministry_id", "title", "status", "capacity"}).AddRow("E1", "M1", "Retiro", models.EventOpen, 1))
	mock.ExpectQuery("SELECT \\* FROM `event_leaders`").WillReturnRows(sqlmock.NewRows([]string{"event_id", "user_id"}))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `event_registrations`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `event_registrations`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	r := newEngine(t, newPrincipal("U1", "LEADER", "M1", ""))
	r.POST("/events/:id/register", Load(gdb, "id", store.Typed(store.LoadEvent)), Require(authz.KindEvent, authz.ActionRegister),
		RegisterSelf(gdb, &activity.Recorder{DB: gdb}))

	w := do(r, http.MethodPost, "/events/E1/register", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "event is full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func userRows(id, role, ministry, master string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "role", "status", "ministry_id", "master_ministry_id"}).
		AddRow(id, id+"@example.com", role, models.UserActive, ministry, master)
}

func TestRequire_MasterStatsOutsideMinistry(t *testing.T) {
	for _, path := range []string{"/events/E1/stats", "/events/E1/feedback"} {
		t.Run(path, func(t *testing.T) {
			gdb, mock := newMockDB(t)
			ev, leaders := eventRows()
			mock.ExpectQuery("SELECT \\* FROM `events`").WillReturnRows(ev)
			mock.ExpectQuery("SELECT \\* FROM `event_leaders`").WillReturnRows(leaders)

			r := newEngine(t, newPrincipal("M", "MASTER", "", "M2"))
			r.GET("/events/:id/stats", Load(gdb, "id", store.Typed(store.LoadEvent)), Require(authz.KindEvent, authz.ActionViewStats),
				func(c *gin.Context) { t.Fatal("handler must not run") })
			r.GET("/events/:id/feedback", Load(gdb, "id", store.Typed(store.LoadEvent)), Require(authz.KindEvent, authz.ActionViewStats),
				func(c *gin.Context) { t.Fatal("handler must not run") })

			w := do(r, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"forbidden","reason":"outside_ministry","permission":"event:view_stats"}`, w.Body.String())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRequire_MasterGroupStatsOutsideMinistry(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `small_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ministry_id", "name"}).AddRow("G1", "M1", "Célula"))
	mock.ExpectQuery("SELECT \\* FROM `small_group_leaders`").WillReturnRows(sqlmock.NewRows([]string{"small_group_id", "user_id"}))

	r := newEngine(t, newPrincipal("M", "MASTER", "", "M2"))
	r.GET("/small-groups/:id/stats", Load(gdb, "id", store.Typed(store.LoadSmallGroup)), Require(authz.KindSmallGroup, authz.ActionViewStats),
		SmallGroupStats(gdb))

	w := do(r, http.MethodGet, "/small-groups/G1/stats", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "outside_ministry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequire_MasterCannotTouchHigherAccounts(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		method string
		route  string
		path   string
		action authz.Action
		body   any
	}{
		{"reset admin password", "ADMIN", http.MethodPost, "/users/:id/password", "/users/T/password", authz.ActionManage, map[string]any{"password": "longenough"}},
		{"suspend admin", "ADMIN", http.MethodPost, "/users/:id/deactivate", "/users/T/deactivate", authz.ActionManage, nil},
		{"demote admin", "ADMIN", http.MethodPut, "/users/:id", "/users/T", authz.ActionEdit, map[string]any{"role": "LEADER"}},
		{"reset peer master password", "MASTER", http.MethodPost, "/users/:id/password", "/users/T/password", authz.ActionManage, map[string]any{"password": "longenough"}},
		{"suspend peer master", "MASTER", http.MethodPost, "/users/:id/deactivate", "/users/T/deactivate", authz.ActionManage, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := newMockDB(t)
			mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(userRows("T", tt.role, "M1", "M1"))

			r := newEngine(t, newPrincipal("M", "MASTER", "M1", "M1"))
			r.Handle(tt.method, tt.route, Load(gdb, "id", store.Typed(store.LoadUser)), Require(authz.KindUser, tt.action),
				func(c *gin.Context) { t.Fatal("handler must not run") })

			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), "role_not_allowed")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestResetPassword_MasterResetsLeader(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(userRows("L1", "LEADER", "M1", ""))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET `password_hash`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectActivity(mock)

	r := newEngine(t, newPrincipal("M", "MASTER", "", "M1"))
	r.POST("/users/:id/password", Load(gdb, "id", store.Typed(store.LoadUser)), Require(authz.KindUser, authz.ActionManage),
		ResetPassword(gdb, &activity.Recorder{DB: gdb}))

	w := do(r, http.MethodPost, "/users/L1/password", map[string]any{"password": "longenough"})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_ChecksCurrentRole(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(userRows("T", "ADMIN", "M1", ""))

	r := newEngine(t, newPrincipal("M", "MASTER", "", "M1"))
	r.PUT("/users/:id", Load(gdb, "id", store.Typed(store.LoadUser)), UpdateUser(gdb, &activity.Recorder{DB: gdb}))

	w := do(r, http.MethodPut, "/users/T", map[string]any{"role": "LEADER"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "role_not_allowed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddGroupMeeting_RejectsZeroDate(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `small_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ministry_id", "name"}).AddRow("G1", "M1", "Célula"))
	mock.ExpectQuery("SELECT \\* FROM `small_group_leaders`").WillReturnRows(sqlmock.NewRows([]string{"small_group_id", "user_id"}))

	r := newEngine(t, newPrincipal("A", "ADMIN", "", ""))
	r.POST("/small-groups/:id/meetings", Load(gdb, "id", store.Typed(store.LoadSmallGroup)), Require(authz.KindSmallGroup, authz.ActionManage),
		AddGroupMeeting(gdb, &activity.Recorder{DB: gdb}))

	w := do(r, http.MethodPost, "/small-groups/G1/meetings", map[string]any{"date": "0001-01-01", "start_time": "19:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid meeting date")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeEventStatus_RejectsInvalidTransition(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `events`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ministry_id", "status"}).AddRow("E1", "M1", models.EventFinished))
	mock.ExpectQuery("SELECT \\* FROM `event_leaders`").WillReturnRows(sqlmock.NewRows([]string{"event_id", "user_id"}))

	r := newEngine(t, newPrincipal("M", "MASTER", "", "M1"))
	r.PATCH("/events/:id/status", Load(gdb, "id", store.Typed(store.LoadEvent)), Require(authz.KindEvent, authz.ActionChangeStatus),
		ChangeEventStatus(gdb, &activity.Recorder{DB: gdb}))

	w := do(r, http.MethodPatch, "/events/E1/status", map[string]string{"status": "OPEN"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEvents_ScopedToLeaderMinistries(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `events` WHERE ministry_id IN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "ministry_id", "title"}).AddRow("E1", "M1", "Retiro"))
	mock.ExpectQuery("SELECT \\* FROM `event_leaders`").WillReturnRows(sqlmock.NewRows([]string{"event_id", "user_id"}))

	r := newEngine(t, newPrincipal("U1", "LEADER", "M1", ""))
	r.GET("/events", Require(authz.KindEvent, authz.ActionList), ListEvents(gdb))

	w := do(r, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Retiro")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMinistries_UnknownRoleSeesNothing(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `ministries` WHERE 1 = 0").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r := newEngine(t, newPrincipal("P", "PASTOR", "M1", ""))
	r.GET("/ministries", ListMinistries(gdb))

	w := do(r, http.MethodGet, "/ministries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupe([]string{"a", "", "b", "a"}))
	assert.Empty(t, dedupe(nil))
}
