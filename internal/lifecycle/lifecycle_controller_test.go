package lifecycle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DhavalSuthar-24/arena/internal/middleware"
	"github.com/DhavalSuthar-24/arena/pkg/validator"
)

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Code    int               `json:"code"`
	Reason  string            `json:"reason"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

func setupRouter(t *testing.T, h *harness) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterGinBindings())
	r := gin.New()
	r.Use(middleware.BearerToken())
	RegisterRoutes(r.Group("/api"), h.engine)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

// doRaw sends body as-is. The reader is wrapped so the request carries no
// Content-Length, as with a chunked upload.
func doRaw(t *testing.T, r *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, path, io.MultiReader(strings.NewReader(body)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func createBody() gin.H {
	return gin.H{
		"title":          "Sunday Duo Cup",
		"game_type":      "DUO",
		"map_name":       "VIKENDI",
		"max_players":    2,
		"entry_fee":      10,
		"scheduled_time": t0.Add(2 * time.Hour).Format(time.RFC3339),
		"rank_prizes":    []gin.H{{"rank": 1, "prize_amount": 100}},
	}
}

func TestCreateMatchEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	r := setupRouter(t, h)

	w, env := do(t, r, http.MethodPost, "/api/matches", h.playerToken, createBody())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission_denied", env.Reason)

	w, _ = do(t, r, http.MethodPost, "/api/matches", "", createBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bad := createBody()
	bad["game_type"] = "TRIO"
	w, env = do(t, r, http.MethodPost, "/api/matches", h.adminToken, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Errors, "gametype")

	w, env = do(t, r, http.MethodPost, "/api/matches", h.adminToken, createBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created MatchSummary
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "sunday-duo-cup", created.Slug)
	assert.Len(t, created.RankPrizes, 1)

	w, env = do(t, r, http.MethodGet, "/api/matches", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []MatchSummary
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestJoinEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	r := setupRouter(t, h)
	m := h.createMatch(t, 1)
	path := fmt.Sprintf("/api/matches/%d/join", m.ID)

	w, env := do(t, r, http.MethodPost, path, h.playerToken, gin.H{"in_game_name": "Ghost"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Joined match successfully", env.Message)

	w, env = do(t, r, http.MethodPost, path, h.playerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_joined", env.Reason)

	w, env = do(t, r, http.MethodPost, path, h.adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "capacity_exceeded", env.Reason)

	w, _ = do(t, r, http.MethodGet, "/api/matches/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/matches/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Reason)
}

func TestBanAndSessionEndpoints(t *testing.T) {
	h := newHarness(t, nil)
	r := setupRouter(t, h)

	w, env := do(t, r, http.MethodGet, "/api/auth/session", h.playerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sess SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Equal(t, 30, sess.RevalidateAfterSeconds)
	assert.Equal(t, h.player.ID, sess.UserID)

	banPath := fmt.Sprintf("/api/users/%d/ban", h.player.ID)
	w, _ = do(t, r, http.MethodPut, banPath, h.adminToken, gin.H{"action": "TEMPORARY_BAN", "duration": "soon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPut, banPath, h.adminToken, gin.H{"action": "TEMPORARY_BAN", "duration": "2h"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = do(t, r, http.MethodGet, "/api/auth/session", h.playerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "banned", env.Reason)

	w, _ = do(t, r, http.MethodPut, banPath, h.adminToken, gin.H{"action": "UNBAN"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/auth/logout", h.playerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = do(t, r, http.MethodGet, "/api/auth/session", h.playerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", env.Reason)
}

func TestJoinEndpointReadsBodyWithoutContentLength(t *testing.T) {
	h := newHarness(t, nil)
	r := setupRouter(t, h)
	m := h.createMatch(t, 2)
	path := fmt.Sprintf("/api/matches/%d/join", m.ID)

	w, env := doRaw(t, r, http.MethodPost, path, h.playerToken, `{"in_game_name":"Ghost"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var joined struct {
		Participant struct {
			InGameName string `json:"in_game_name"`
		} `json:"participant"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	assert.Equal(t, "Ghost", joined.Participant.InGameName)

	w, _ = doRaw(t, r, http.MethodPost, path, h.adminToken, "")
	assert.Equal(t, http.StatusCreated, w.Code, "empty body joins without a name")
}

func TestAuthorizationPrecedesBodyValidation(t *testing.T) {
	h := newHarness(t, nil)
	r := setupRouter(t, h)
	m := h.createMatch(t, 2)
	malformed := `{"title": 42`

	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/matches"},
		{http.MethodPut, fmt.Sprintf("/api/matches/%d", m.ID)},
		{http.MethodPatch, fmt.Sprintf("/api/matches/%d/status", m.ID)},
		{http.MethodPut, fmt.Sprintf("/api/matches/%d/room-details", m.ID)},
		{http.MethodPut, fmt.Sprintf("/api/users/%d/ban", h.player.ID)},
	}
	for _, tc := range cases {
		w, env := doRaw(t, r, tc.method, tc.path, "", malformed)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
		assert.Equal(t, "unauthenticated", env.Reason, tc.path)

		w, env = doRaw(t, r, tc.method, tc.path, h.playerToken, malformed)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
		assert.Equal(t, "permission_denied", env.Reason, tc.path)

		w, _ = doRaw(t, r, tc.method, tc.path, h.adminToken, malformed)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
	}

	w, _ := doRaw(t, r, http.MethodPost, fmt.Sprintf("/api/matches/%d/join", m.ID), "", malformed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
