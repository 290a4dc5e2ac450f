package obs

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ministry_hub/internal/authz"
)

func TestRequestIDAndLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), LogRequests(NewLogger(&buf, slog.LevelInfo)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, "/ping", line["path"])
	assert.EqualValues(t, 204, line["status"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 26)
}

func TestObserveDecision(t *testing.T) {
	Init()
	Init()
	d := authz.Decision{Kind: authz.KindEvent, Action: authz.ActionEdit, Reason: authz.ReasonNotResourceLeader}
	before := testutil.ToFloat64(authzDecisions.WithLabelValues("event", "edit", "not_resource_leader"))
	ObserveDecision(d)
	assert.Equal(t, before+1, testutil.ToFloat64(authzDecisions.WithLabelValues("event", "edit", "not_resource_leader")))
}
