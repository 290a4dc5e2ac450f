package activity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ministry_hub/internal/auth"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
	"ministry_hub/internal/store"
)

func principal(id, role, ministry, master string) *store.Principal {
	return &store.Principal{
		User:   &models.User{ID: id, Name: id, Email: id + "@example.com", Role: role},
		Record: authz.ActorRecord{ID: id, Role: role, MinistryID: ministry, MasterMinistryID: master},
	}
}

func ptr(s string) *string { return &s }

func TestVisible(t *testing.T) {
	admin := principal("A", "ADMIN", "", "")
	master := principal("M", "MASTER", "", "M1")
	leader := principal("L", "LEADER", "M2", "")

	inM1 := models.Activity{MinistryID: ptr("M1")}
	global := models.Activity{}

	assert.True(t, Visible(admin, inM1))
	assert.True(t, Visible(admin, global))
	assert.True(t, Visible(master, inM1))
	assert.False(t, Visible(master, global))
	assert.False(t, Visible(leader, inM1))
	assert.True(t, Visible(leader, models.Activity{MinistryID: ptr("M2")}))
}

func TestHub_FilterAndCancel(t *testing.T) {
	h := NewHub()
	onlyM1 := func(a models.Activity) bool { return models.Deref(a.MinistryID) == "M1" }
	feed, cancel := h.Subscribe(onlyM1)
	require.Equal(t, 1, h.Len())

	h.Publish(models.Activity{ID: 1, MinistryID: ptr("M2")})
	h.Publish(models.Activity{ID: 2, MinistryID: ptr("M1")})

	got := <-feed
	assert.EqualValues(t, 2, got.ID)
	select {
	case extra := <-feed:
		t.Fatalf("unexpected entry %d", extra.ID)
	default:
	}

	cancel()
	cancel()
	assert.Equal(t, 0, h.Len())
	_, open := <-feed
	assert.False(t, open)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe(nil)
	defer cancel()
	for i := 0; i < subscriberBuffer*3; i++ {
		h.Publish(models.Activity{ID: int64(i)})
	}
}

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

func withPrincipal(p *store.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth.SetPrincipal(c, p)
		c.Next()
	}
}

func TestRecorder_RecordPublishes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `activities`").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	hub := NewHub()
	feed, cancel := hub.Subscribe(nil)
	defer cancel()
	rec := &Recorder{DB: gdb, Hub: hub}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	rec.Record(c, principal("U1", "LEADER", "M1", ""), Entry{
		MinistryID:   "M1",
		Action:       "event.create",
		ResourceType: "event",
		ResourceID:   "E1",
	})

	got := <-feed
	assert.Equal(t, "event.create", got.Action)
	assert.Equal(t, "M1", models.Deref(got.MinistryID))
	assert.EqualValues(t, 42, got.ID)
	assert.Contains(t, string(got.Metadata), "U1@example.com")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Paginates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{"id", "ministry_id", "action"})
	for id := 30; id > 27; id-- {
		rows.AddRow(id, "M1", "event.edit")
	}
	mock.ExpectQuery("SELECT \\* FROM `activities` WHERE ministry_id IN").WillReturnRows(rows)

	r := gin.New()
	r.GET("/activity", withPrincipal(principal("M", "MASTER", "", "M1")), List(gdb))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activity?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Logs       []models.Activity `json:"logs"`
		NextCursor *int64            `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Logs, 2)
	require.NotNil(t, body.NextCursor)
	assert.EqualValues(t, 29, *body.NextCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStream_DeliversVisibleEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", withPrincipal(principal("L", "LEADER", "M1", "")), Stream(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(models.Activity{ID: 1, MinistryID: ptr("M9"), Action: "hidden"})
	hub.Publish(models.Activity{ID: 2, MinistryID: ptr("M1"), Action: "member.create"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.Activity
	require.NoError(t, conn.ReadJSON(&got))
	assert.EqualValues(t, 2, got.ID)
	assert.Equal(t, "member.create", got.Action)
}
