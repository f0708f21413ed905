package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"collabtrack/internal/handler"
	"collabtrack/internal/service"
)

func newTimerRouter(t *testing.T, actorID int) (*gin.Engine, *fakeSessionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ss := newFakeSessionStore(7)
	svc := service.NewTimeTrackingService(ss, newFakeMilestoneStore(), &fakeCompensationSource{}, zap.NewNop())
	h := handler.NewTimerHandler(svc, zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("actor_id", actorID)
		c.Set("role", "influencer")
	})
	r.POST("/timer/start", h.Start)
	r.POST("/timer/stop", h.Stop)
	r.GET("/timer/active", h.Active)
	return r, ss
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartTimer(t *testing.T) {
	r, _ := newTimerRouter(t, 3)

	w := doJSON(r, http.MethodPost, "/timer/start", gin.H{"milestone_id": 1, "description": "editing"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Session struct {
			ID       int  `json:"id"`
			ActorID  int  `json:"actor_id"`
			IsActive bool `json:"is_active"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Session.ActorID)
	assert.True(t, resp.Session.IsActive)
}

func TestStartTimer_MissingMilestoneID(t *testing.T) {
	r, _ := newTimerRouter(t, 3)

	w := doJSON(r, http.MethodPost, "/timer/start", gin.H{"description": "no milestone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// 第二个计时器返回 409 和稳定的 conflict 错误码
func TestStartTimer_Conflict(t *testing.T) {
	r, _ := newTimerRouter(t, 3)

	w := doJSON(r, http.MethodPost, "/timer/start", gin.H{"milestone_id": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/timer/start", gin.H{"milestone_id": 2})
	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "conflict", resp.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestStopTimer(t *testing.T) {
	r, _ := newTimerRouter(t, 3)

	w := doJSON(r, http.MethodPost, "/timer/start", gin.H{"milestone_id": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/timer/stop", gin.H{"session_id": 1})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Session struct {
			IsActive        bool   `json:"is_active"`
			DurationSeconds *int64 `json:"duration_seconds"`
		} `json:"session"`
		Progress struct {
			TotalTimeSpentSeconds int64 `json:"total_time_spent_seconds"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Session.IsActive)
	require.NotNil(t, resp.Session.DurationSeconds)
	assert.Equal(t, int64(3600), resp.Progress.TotalTimeSpentSeconds)
}

func TestStopTimer_AlreadyStopped(t *testing.T) {
	r, _ := newTimerRouter(t, 3)

	doJSON(r, http.MethodPost, "/timer/start", gin.H{"milestone_id": 1})
	doJSON(r, http.MethodPost, "/timer/stop", gin.H{"session_id": 1})

	w := doJSON(r, http.MethodPost, "/timer/stop", gin.H{"session_id": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStopTimer_NotFound(t *testing.T) {
	r, _ := newTimerRouter(t, 3)

	w := doJSON(r, http.MethodPost, "/timer/stop", gin.H{"session_id": 42})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// 没有活跃会话时返回 200 + null，轮询端不会把它当错误
func TestActiveTimer_NoneIsNull(t *testing.T) {
	r, _ := newTimerRouter(t, 3)

	w := doJSON(r, http.MethodGet, "/timer/active", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Session *json.RawMessage `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if resp.Session != nil {
		assert.Equal(t, "null", string(*resp.Session))
	}
}
