package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dormbot/internal/config"
	"dormbot/internal/log"
	"dormbot/internal/metrics"
	"dormbot/internal/models"
	"dormbot/internal/service/chat"
	"dormbot/internal/service/matcher"
	"dormbot/internal/service/router"
)

const (
	modeTenant = "tenant"
	modeAdmin  = "admin"
)

// AdminRouter answers administrative questions.
type AdminRouter interface {
	Reply(ctx context.Context, message string) (router.Result, error)
}

// Handler wires HTTP routes to the chat service and the two reply strategies.
type Handler struct {
	chat       *chat.Service
	router     AdminRouter
	metrics    *metrics.Metrics
	botID      string
	adminBotID string
}

// NewHandler constructs a Handler instance.
func NewHandler(service *chat.Service, adminRouter AdminRouter, m *metrics.Metrics, cfg config.ChatConfig) *Handler {
	return &Handler{
		chat:       service,
		router:     adminRouter,
		metrics:    m,
		botID:      cfg.BotID,
		adminBotID: cfg.AdminBotID,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", h.health)
	if h.metrics != nil {
		engine.GET("/metrics", h.metrics.Handler())
	}

	api := engine.Group("/chat")
	api.POST("/session", h.resolveSession)
	api.POST("/message/:sessionId", h.postMessage)
	api.GET("/messages/:sessionId", h.listMessages)
	api.GET("/prompts", h.listPrompts)
	api.POST("/prompts", h.upsertPrompt)
	api.POST("/prompts/delete", h.deletePrompt)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps service errors onto status codes. Anything unknown is a
// persistence failure.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrInvalidParticipants),
		errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrInvalidPrompt):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrSessionNotFound),
		errors.Is(err, chat.ErrPromptNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func sessionIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("sessionId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, false
	}
	return id, true
}

type sessionRequest struct {
	ParticipantA string `json:"participantA"`
	ParticipantB string `json:"participantB"`
}

func (h *Handler) resolveSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.chat.ResolveSession(c.Request.Context(), req.ParticipantA, req.ParticipantB)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": id})
}

type messageRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

// postMessage logs the inbound message, computes the bot reply for the
// requested mode, logs the reply to the sender and returns it.
func (h *Handler) postMessage(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	mode := strings.ToLower(strings.TrimSpace(c.Query("mode")))
	if mode == "" {
		mode = modeTenant
	}
	if mode != modeTenant && mode != modeAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be admin or tenant"})
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Sender = strings.TrimSpace(req.Sender)
	req.Receiver = strings.TrimSpace(req.Receiver)
	if req.Sender == "" || req.Receiver == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender and receiver are required"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if h.adminBotID != "" && req.Receiver == h.adminBotID {
		mode = modeAdmin
	}

	ctx := log.WithLogger(c.Request.Context(), log.Ctx(c.Request.Context()).With().
		Int64(log.FieldSessionID, sessionID).
		Str(log.FieldSender, req.Sender).
		Str(log.FieldMode, mode).
		Logger())

	if _, err := h.chat.AppendMessage(ctx, sessionID, req.Sender, req.Receiver, req.Content); err != nil {
		writeError(c, err)
		return
	}

	var (
		reply   string
		outcome string
		err     error
	)
	if mode == modeAdmin {
		reply, outcome, err = h.adminReply(ctx, req.Content)
	} else {
		reply, outcome, err = h.tenantReply(ctx, req.Content)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if _, err := h.chat.AppendMessage(ctx, sessionID, h.replySender(mode), req.Sender, reply); err != nil {
		writeError(c, err)
		return
	}
	h.metrics.ObserveReply(mode, outcome)
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handler) replySender(mode string) string {
	if mode == modeAdmin && h.adminBotID != "" {
		return h.adminBotID
	}
	return h.botID
}

func (h *Handler) tenantReply(ctx context.Context, content string) (string, string, error) {
	prompts, err := h.chat.ListPrompts(ctx)
	if err != nil {
		return "", "", err
	}
	reply, match, matched := matcher.Reply(content, prompts)
	outcome := "fallback"
	l := log.Ctx(ctx)
	evt := l.Debug().Float64(log.FieldScore, match.Score)
	if matched {
		outcome = "matched"
		evt = evt.Int64(log.FieldPromptID, match.Prompt.ID)
	}
	evt.Msg("matched knowledge base")
	return reply, outcome, nil
}

func (h *Handler) adminReply(ctx context.Context, content string) (string, string, error) {
	if h.router == nil {
		return router.NotUnderstoodReply, router.RuleNLUError, nil
	}
	res, err := h.router.Reply(ctx, content)
	if err != nil {
		return "", "", err
	}
	return res.Text, res.Rule, nil
}

type messageView struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func toMessageView(m models.Message) messageView {
	return messageView{
		Sender:    m.SenderID,
		Receiver:  m.ReceiverID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func (h *Handler) listMessages(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	messages, err := h.chat.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, toMessageView(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

type promptView struct {
	ID       int64  `json:"id"`
	Query    string `json:"query"`
	Response string `json:"response"`
}

func toPromptView(p models.Prompt) promptView {
	return promptView{ID: p.ID, Query: p.Query, Response: p.Response}
}

func (h *Handler) listPrompts(c *gin.Context) {
	prompts, err := h.chat.ListPrompts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]promptView, 0, len(prompts))
	for _, p := range prompts {
		views = append(views, toPromptView(p))
	}
	c.JSON(http.StatusOK, gin.H{"prompts": views})
}

type promptRequest struct {
	ID       *int64 `json:"id"`
	Query    string `json:"query"`
	Response string `json:"response"`
}

func (h *Handler) upsertPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ID != nil && *req.ID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prompt id"})
		return
	}
	p, err := h.chat.UpsertPrompt(c.Request.Context(), req.ID, req.Query, req.Response)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPromptView(*p))
}

type deletePromptRequest struct {
	ID int64 `json:"id"`
}

func (h *Handler) deletePrompt(c *gin.Context) {
	var req deletePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prompt id"})
		return
	}
	if err := h.chat.DeletePrompt(c.Request.Context(), req.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
