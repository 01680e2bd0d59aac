package lifecycle

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/match"
	"github.com/DhavalSuthar-24/arena/internal/session"
	"github.com/DhavalSuthar-24/arena/pkg/responses"
)

// LifecycleController handles API requests for matches, seats and bans.
type LifecycleController struct {
	engine *Engine
}

func NewLifecycleController(engine *Engine) *LifecycleController {
	return &LifecycleController{engine: engine}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		responses.ErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" ID")
		return 0, false
	}
	return uint(id), true
}

// --- Match Handlers ---

// ListMatches godoc
// @Summary List matches
// @Description Lists every match with its effective status and player count. Authenticated callers also see whether they joined.
// @Tags Matches
// @Produce json
// @Success 200 {object} map[string]interface{} "data: []MatchSummary"
// @Failure 401 {object} map[string]interface{} "Invalid token"
// @Router /matches [get]
func (lc *LifecycleController) ListMatches(c *gin.Context) {
	matches, err := lc.engine.ListMatches(c.Request.Context(), common.GetTokenFromContext(c))
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, matches)
}

// GetMatch godoc
// @Summary Get match
// @Description Returns one match. Authenticated callers also receive their room details view.
// @Tags Matches
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]interface{} "data: MatchDetail"
// @Failure 404 {object} map[string]interface{} "Match not found"
// @Router /matches/{id} [get]
func (lc *LifecycleController) GetMatch(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	detail, err := lc.engine.GetMatch(c.Request.Context(), common.GetTokenFromContext(c), id)
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, detail)
}

// ListPlayers godoc
// @Summary List joined players
// @Tags Matches
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]interface{} "data: []Participant"
// @Failure 404 {object} map[string]interface{} "Match not found"
// @Router /matches/{id}/players [get]
func (lc *LifecycleController) ListPlayers(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	players, err := lc.engine.ListPlayers(c.Request.Context(), id)
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, players)
}

// ViewDetails godoc
// @Summary Room details
// @Description Returns the room ID and password once the caller has joined and the exit window has closed.
// @Tags Matches
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]interface{} "data: credential view"
// @Failure 401 {object} map[string]interface{} "Unauthenticated"
// @Failure 403 {object} map[string]interface{} "Banned"
// @Failure 404 {object} map[string]interface{} "Match not found"
// @Router /matches/{id}/details [get]
// @Security BearerAuth
func (lc *LifecycleController) ViewDetails(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	view, err := lc.engine.ViewDetails(c.Request.Context(), common.GetTokenFromContext(c), id)
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, view)
}

// JoinMatch godoc
// @Summary Join a match
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param body body JoinMatchRequest false "In-game name"
// @Success 201 {object} map[string]interface{} "data: Participant"
// @Failure 409 {object} map[string]interface{} "Match full, not upcoming, or already joined"
// @Router /matches/{id}/join [post]
// @Security BearerAuth
func (lc *LifecycleController) JoinMatch(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	// The body is optional; an empty one binds to the zero request.
	var req JoinMatchRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			responses.ValidationErrorResponse(c, err)
			return
		}
	}
	p, err := lc.engine.Join(c.Request.Context(), common.GetTokenFromContext(c), id, req.InGameName)
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusCreated, gin.H{"message": "Joined match successfully", "participant": p})
}

// ExitMatch godoc
// @Summary Leave a match
// @Description Releases the caller's seat. Refused from 15 minutes before the scheduled start.
// @Tags Matches
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Not joined or exit window closed"
// @Router /matches/{id}/exit [post]
// @Security BearerAuth
func (lc *LifecycleController) ExitMatch(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	if err := lc.engine.Exit(c.Request.Context(), common.GetTokenFromContext(c), id); err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, gin.H{"message": "Exited match successfully"})
}

// CreateMatch godoc
// @Summary Create a match
// @Tags Admin
// @Accept json
// @Produce json
// @Param match body CreateMatchRequest true "Match definition"
// @Success 201 {object} map[string]interface{} "data: MatchSummary"
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 403 {object} map[string]interface{} "Admin only"
// @Router /matches [post]
// @Security BearerAuth
func (lc *LifecycleController) CreateMatch(c *gin.Context) {
	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationErrorResponse(c, err)
		return
	}
	m, err := lc.engine.CreateMatch(c.Request.Context(), common.GetTokenFromContext(c), req.spec())
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusCreated, m)
}

// UpdateMatch godoc
// @Summary Update a match
// @Description Partial update of an upcoming match.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param match body UpdateMatchRequest true "Fields to change"
// @Success 200 {object} map[string]interface{} "data: MatchSummary"
// @Failure 409 {object} map[string]interface{} "Match is no longer upcoming"
// @Router /matches/{id} [put]
// @Security BearerAuth
func (lc *LifecycleController) UpdateMatch(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	var req UpdateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationErrorResponse(c, err)
		return
	}
	m, err := lc.engine.UpdateMatch(c.Request.Context(), common.GetTokenFromContext(c), id, req.patch())
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, m)
}

// DeleteMatch godoc
// @Summary Delete a match
// @Description Only matches without joined players can be deleted.
// @Tags Admin
// @Produce json
// @Param id path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Match has players"
// @Router /matches/{id} [delete]
// @Security BearerAuth
func (lc *LifecycleController) DeleteMatch(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	if err := lc.engine.DeleteMatch(c.Request.Context(), common.GetTokenFromContext(c), id); err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, gin.H{"message": "Match deleted successfully"})
}

// SetStatus godoc
// @Summary Change match status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param body body StatusRequest true "Target status"
// @Success 200 {object} map[string]interface{} "data: MatchSummary"
// @Failure 409 {object} map[string]interface{} "Transition not allowed"
// @Router /matches/{id}/status [patch]
// @Security BearerAuth
func (lc *LifecycleController) SetStatus(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationErrorResponse(c, err)
		return
	}
	m, err := lc.engine.SetStatus(c.Request.Context(), common.GetTokenFromContext(c), id, match.Status(req.Status))
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, m)
}

// SetRoomDetails godoc
// @Summary Set room credential
// @Description Stores the room ID and password. A password is generated when omitted.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param body body RoomDetailsRequest true "Room credential"
// @Success 200 {object} map[string]interface{} "data: RoomDetails"
// @Failure 403 {object} map[string]interface{} "Admin only"
// @Router /matches/{id}/room-details [put]
// @Security BearerAuth
func (lc *LifecycleController) SetRoomDetails(c *gin.Context) {
	id, ok := parseID(c, "match")
	if !ok {
		return
	}
	var req RoomDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationErrorResponse(c, err)
		return
	}
	out, err := lc.engine.SetRoomDetails(c.Request.Context(), common.GetTokenFromContext(c), id, RoomDetails{
		RoomID:       req.RoomID,
		RoomPassword: req.RoomPassword,
		Enabled:      req.Enabled,
	})
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, out)
}

// --- User Handlers ---

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "data: []UserResponse"
// @Failure 403 {object} map[string]interface{} "Admin only"
// @Router /users [get]
// @Security BearerAuth
func (lc *LifecycleController) ListUsers(c *gin.Context) {
	users, err := lc.engine.ListUsers(c.Request.Context(), common.GetTokenFromContext(c))
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, users)
}

// BanUser godoc
// @Summary Ban or unban a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param body body BanUserRequest true "Ban action"
// @Success 200 {object} map[string]interface{} "data: UserResponse"
// @Failure 400 {object} map[string]interface{} "Cannot ban yourself"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Router /users/{id}/ban [put]
// @Security BearerAuth
func (lc *LifecycleController) BanUser(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}
	var req BanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationErrorResponse(c, err)
		return
	}
	ban, err := req.banRequest()
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	u, err := lc.engine.Ban(c.Request.Context(), common.GetTokenFromContext(c), id, ban)
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, u)
}

// --- Session Handlers ---

// CheckSession godoc
// @Summary Check session
// @Description Polled by clients every 30 seconds. Fails with 403 once the user is banned.
// @Tags Auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]interface{} "Unauthenticated"
// @Failure 403 {object} map[string]interface{} "Banned"
// @Router /auth/session [get]
// @Security BearerAuth
func (lc *LifecycleController) CheckSession(c *gin.Context) {
	id, err := lc.engine.CheckSession(c.Request.Context(), common.GetTokenFromContext(c))
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, SessionResponse{
		Identity:               id,
		RevalidateAfterSeconds: int(session.RevalidationInterval.Seconds()),
	})
}

// Logout godoc
// @Summary Logout
// @Description Revokes the presented access token.
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{} "Unauthenticated"
// @Router /auth/logout [post]
// @Security BearerAuth
func (lc *LifecycleController) Logout(c *gin.Context) {
	if err := lc.engine.SignOut(c.Request.Context(), common.GetTokenFromContext(c)); err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}
