package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Maestro/internal/app"
	"github.com/dkeye/Maestro/internal/core"
	"github.com/dkeye/Maestro/internal/domain"
)

type Handler struct {
	dispatcher *app.Dispatcher
	// legacy enables the extension compatibility surface: the "query"
	// alias on /api/play and status/message duplication in error bodies.
	legacy bool
}

func NewHandler(dispatcher *app.Dispatcher, legacy bool) *Handler {
	return &Handler{dispatcher: dispatcher, legacy: legacy}
}

type guildRequest struct {
	GuildID string `json:"guild_id"`
}

type playRequest struct {
	GuildID string `json:"guild_id"`
	Search  string `json:"search"`
	Query   string `json:"query"`
}

type volumeRequest struct {
	GuildID string `json:"guild_id"`
	Volume  *int   `json:"volume"`
}

type loopRequest struct {
	GuildID string `json:"guild_id"`
	Mode    string `json:"mode"`
}

func (h *Handler) Status(c *gin.Context) {
	snap, err := h.dispatcher.Status()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) Guilds(c *gin.Context) {
	guilds, err := h.dispatcher.Guilds()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guilds": guilds})
}

func (h *Handler) Session(c *gin.Context) {
	detail, err := h.dispatcher.SessionDetail(c.Param("guild_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) Play(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	search := req.Search
	if search == "" && h.legacy {
		search = req.Query
	}
	if req.GuildID == "" || search == "" {
		h.badRequest(c, "Missing guild_id or search")
		return
	}

	added, err := h.dispatcher.Play(c.Request.Context(), req.GuildID, search)
	if errors.Is(err, core.ErrNoActiveSession) {
		// Strict play policy: the session must already exist.
		h.errorBody(c, http.StatusNotFound, "No active session. Use /join first")
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.success(c, fmt.Sprintf("Added %d song(s): %s", added, search))
}

func (h *Handler) Join(c *gin.Context) {
	h.guildCommand(c, h.dispatcher.Join)
}

func (h *Handler) Leave(c *gin.Context) {
	h.guildCommand(c, h.dispatcher.Leave)
}

func (h *Handler) Pause(c *gin.Context) {
	h.guildCommand(c, h.dispatcher.Pause)
}

func (h *Handler) Resume(c *gin.Context) {
	h.guildCommand(c, h.dispatcher.Resume)
}

func (h *Handler) Skip(c *gin.Context) {
	h.guildCommand(c, h.dispatcher.Skip)
}

func (h *Handler) Stop(c *gin.Context) {
	h.guildCommand(c, h.dispatcher.Stop)
}

func (h *Handler) Clear(c *gin.Context) {
	h.guildCommand(c, h.dispatcher.ClearQueue)
}

func (h *Handler) Shuffle(c *gin.Context) {
	h.guildCommand(c, h.dispatcher.Shuffle)
}

func (h *Handler) Volume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Volume == nil {
		h.badRequest(c, "Invalid or missing guild_id/volume")
		return
	}
	if err := h.dispatcher.SetVolume(req.GuildID, *req.Volume); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Loop(c *gin.Context) {
	var req loopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	if req.Mode == "" {
		h.badRequest(c, "Missing loop mode")
		return
	}
	if err := h.dispatcher.SetLoopMode(req.GuildID, req.Mode); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Radio(c *gin.Context) {
	var req guildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	enabled, err := h.dispatcher.ToggleRadio(c.Request.Context(), req.GuildID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if enabled {
		h.success(c, "Radio enabled")
		return
	}
	h.success(c, "Radio disabled")
}

func (h *Handler) Crossfade(c *gin.Context) {
	var req guildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	enabled, err := h.dispatcher.ToggleCrossfade(req.GuildID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": enabled})
}

// guildCommand handles the commands whose request is just a guild_id and
// whose success body is {"success":true}.
func (h *Handler) guildCommand(c *gin.Context, run func(guildID string) error) {
	var req guildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid or missing guild_id")
		return
	}
	if err := run(req.GuildID); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) success(c *gin.Context, msg string) {
	body := gin.H{"success": true, "message": msg}
	if h.legacy {
		body["status"] = "success"
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	h.errorBody(c, http.StatusBadRequest, msg)
}

func (h *Handler) errorBody(c *gin.Context, status int, msg string) {
	body := gin.H{"error": msg}
	if h.legacy {
		body["status"] = "error"
		body["message"] = msg
	}
	c.JSON(status, body)
}

// writeError maps the command failure taxonomy onto HTTP statuses. An
// error outside the taxonomy is an engine failure and surfaces verbatim.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrEngineNotAttached):
		h.errorBody(c, http.StatusServiceUnavailable, "Engine not initialized")
	case errors.Is(err, domain.ErrInvalidGuildID):
		h.errorBody(c, http.StatusBadRequest, "Invalid guild_id")
	case errors.Is(err, core.ErrEmptyQuery):
		h.errorBody(c, http.StatusBadRequest, "Missing guild_id or search")
	case errors.Is(err, core.ErrVolumeOutOfRange):
		h.errorBody(c, http.StatusBadRequest, "Volume must be between 0 and 100")
	case errors.Is(err, domain.ErrUnknownLoopMode):
		h.errorBody(c, http.StatusBadRequest, "Invalid loop mode")
	case errors.Is(err, core.ErrNothingPlaying):
		h.errorBody(c, http.StatusBadRequest, "Play a song first to start radio")
	case errors.Is(err, core.ErrUnknownGuild):
		h.errorBody(c, http.StatusNotFound, "Unknown guild")
	case errors.Is(err, core.ErrNoActiveSession):
		h.errorBody(c, http.StatusNotFound, "No active session")
	case errors.Is(err, core.ErrNothingToSkip):
		h.errorBody(c, http.StatusNotFound, "Nothing to skip")
	case errors.Is(err, core.ErrNoResults):
		h.errorBody(c, http.StatusNotFound, "No songs found or added")
	case errors.Is(err, core.ErrBridgeTimeout):
		h.errorBody(c, http.StatusGatewayTimeout, "Command timed out")
	default:
		h.errorBody(c, http.StatusInternalServerError, err.Error())
	}
}
