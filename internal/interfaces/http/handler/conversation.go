package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	messagingapp "github.com/marketplace/backend/internal/application/messaging"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	defaultHeartbeat = 25 * time.Second
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 16 << 10
)

// StreamObserver counts open live streams
type StreamObserver interface {
	StreamOpened()
	StreamClosed()
}

type nopStreamObserver struct{}

func (nopStreamObserver) StreamOpened() {}
func (nopStreamObserver) StreamClosed() {}

// ConversationHandler handles direct messaging HTTP, SSE and WebSocket requests
type ConversationHandler struct {
	BaseHandler
	conversationService *messagingapp.ConversationService
	streams             StreamObserver
	heartbeat           time.Duration
	upgrader            websocket.Upgrader
}

// ConversationHandlerOption configures a ConversationHandler
type ConversationHandlerOption func(*ConversationHandler)

// WithStreamObserver counts SSE and WebSocket connections
func WithStreamObserver(o StreamObserver) ConversationHandlerOption {
	return func(h *ConversationHandler) {
		if o != nil {
			h.streams = o
		}
	}
}

// WithHeartbeat sets the keep-alive interval of live streams
func WithHeartbeat(d time.Duration) ConversationHandlerOption {
	return func(h *ConversationHandler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithAllowedOrigins restricts WebSocket upgrades to the given origins.
// Without it the upgrader only accepts same-host origins.
func WithAllowedOrigins(origins []string) ConversationHandlerOption {
	return func(h *ConversationHandler) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			allowed[o] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			_, wildcard := allowed["*"]
			return ok || wildcard
		}
	}
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(conversationService *messagingapp.ConversationService, opts ...ConversationHandlerOption) *ConversationHandler {
	h := &ConversationHandler{
		conversationService: conversationService,
		streams:             nopStreamObserver{},
		heartbeat:           defaultHeartbeat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// List godoc
// @ID           listConversations
// @Summary      List my conversations
// @Description  Most recent first. search filters by participant name or last message.
// @Tags         conversations
// @Produce      json
// @Param        search query string false "Filter term"
// @Success      200 {object} ListResponse[messagingapp.ConversationResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	list, err := h.conversationService.LoadConversations(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	list = messagingapp.FilterConversations(list, c.Query("search"))
	if list == nil {
		list = []messagingapp.ConversationResponse{}
	}
	h.Success(c, list)
}

// Start godoc
// @ID           startConversation
// @Summary      Start a conversation
// @Description  Returns the existing conversation with the user or creates one
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        request body messagingapp.StartConversationRequest true "Other participant"
// @Success      200 {object} APIResponse[messagingapp.ConversationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /conversations [post]
func (h *ConversationHandler) Start(c *gin.Context) {
	var req messagingapp.StartConversationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	conv, err := h.conversationService.StartConversation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, conv)
}

// Thread godoc
// @ID           getConversationThread
// @Summary      Open a conversation
// @Description  Returns the full history oldest first and marks incoming messages read
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Success      200 {object} APIResponse[messagingapp.ThreadResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /conversations/{id}/messages [get]
func (h *ConversationHandler) Thread(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	thread, err := h.conversationService.LoadThread(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, thread)
}

// Send godoc
// @ID           sendMessage
// @Summary      Send a message
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Param        request body messagingapp.SendMessageRequest true "Message"
// @Success      201 {object} APIResponse[messagingapp.MessageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /conversations/{id}/messages [post]
func (h *ConversationHandler) Send(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req messagingapp.SendMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.ConversationID = id
	msg, err := h.conversationService.SendMessage(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// MarkRead godoc
// @ID           markConversationRead
// @Summary      Mark conversation read
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Success      200 {object} APIResponse[messagingapp.MarkReadResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /conversations/{id}/read [post]
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.conversationService.MarkRead(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// SearchUsers godoc
// @ID           searchUsers
// @Summary      Find users to message
// @Tags         conversations
// @Produce      json
// @Param        q query string true "Name, at least 2 characters"
// @Success      200 {object} ListResponse[messagingapp.UserSearchResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/search [get]
func (h *ConversationHandler) SearchUsers(c *gin.Context) {
	users, err := h.conversationService.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if users == nil {
		users = []messagingapp.UserSearchResponse{}
	}
	h.Success(c, users)
}

// Stream godoc
// @ID           streamConversation
// @Summary      Live messages
// @Description  Server-sent events carrying every new message of the conversation. Messages delivered to their receiver are marked read. Token may be passed as access_token.
// @Tags         conversations
// @Produce      text/event-stream
// @Param        id path string true "Conversation ID" format(uuid)
// @Param        access_token query string false "JWT for EventSource clients"
// @Success      200 {object} messagingapp.MessageResponse "event: message"
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /conversations/{id}/stream [get]
func (h *ConversationHandler) Stream(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me, _ := identity.FromContext(ctx)
	log := logger.GetGinLogger(c)
	sub, err := h.conversationService.Subscribe(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer sub.Unsubscribe()

	h.streams.StreamOpened()
	defer h.streams.StreamClosed()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"conversation_id": id})
	c.Writer.Flush()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent("message", messagingapp.ToMessageResponse(&msg))
			c.Writer.Flush()
			if msg.ReceiverID == me.UserID {
				if _, err := h.conversationService.MarkRead(ctx, id); err != nil {
					log.Warn("Failed to mark streamed message read",
						zap.String("conversation_id", id.String()), zap.Error(err))
				}
			}
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			return true
		}
	})
}

// wsCommand is a client frame on the conversation socket
type wsCommand struct {
	Type           string    `json:"type"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Content        string    `json:"content"`
}

// wsFrame is a server frame on the conversation socket
type wsFrame struct {
	Type    string                        `json:"type"`
	Thread  *messagingapp.ThreadResponse  `json:"thread,omitempty"`
	Message *messagingapp.MessageResponse `json:"message,omitempty"`
	Error   *dto.ErrorInfo                `json:"error,omitempty"`
}

// Socket godoc
// @ID           conversationSocket
// @Summary      Conversation socket
// @Description  WebSocket holding one open thread. Client frames: {"type":"select","conversation_id":...} and {"type":"send","content":...}. Server frames: thread, message, sent and error.
// @Tags         conversations
// @Param        access_token query string false "JWT for browser clients"
// @Success      101
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /conversations/ws [get]
func (h *ConversationHandler) Socket(c *gin.Context) {
	log := logger.GetGinLogger(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.streams.StreamOpened()
	defer h.streams.StreamClosed()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	session := messagingapp.NewThreadSession(h.conversationService, log)
	defer session.Close()

	out := make(chan wsFrame, 16)
	writerDone := make(chan struct{})
	go h.writeLoop(ctx, conn, session, out, writerDone, log)

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * h.heartbeat))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.heartbeat))
	})

	reply := func(f wsFrame) {
		select {
		case out <- f:
		case <-ctx.Done():
		}
	}

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("WebSocket closed", zap.Error(err))
			}
			break
		}

		switch cmd.Type {
		case "select":
			// Runs concurrently so a newer selection can supersede a slow fetch
			go func(id uuid.UUID) {
				if _, err := session.Select(ctx, id); err != nil && !errors.Is(err, messagingapp.ErrSelectionSuperseded) {
					reply(errorFrame(err))
				}
			}(cmd.ConversationID)
		case "send":
			msg, err := session.Send(ctx, cmd.Content)
			if err != nil {
				reply(errorFrame(err))
				continue
			}
			reply(wsFrame{Type: "sent", Message: msg})
		default:
			reply(errorFrame(shared.NewDomainError("BAD_REQUEST", "Unknown command type")))
		}
	}

	cancel()
	<-writerDone
}

func (h *ConversationHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *messagingapp.ThreadSession, out <-chan wsFrame, done chan<- struct{}, log *zap.Logger) {
	defer close(done)
	// Closing unblocks the reader when a write fails
	defer conn.Close()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	write := func(f wsFrame) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(f); err != nil {
			log.Debug("WebSocket write failed", zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		case ev := <-session.Events():
			if !write(wsFrame{Type: string(ev.Type), Thread: ev.Thread, Message: ev.Message}) {
				return
			}
		case f := <-out:
			if !write(f) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func errorFrame(err error) wsFrame {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		if !dto.IsInternal(code) {
			return wsFrame{Type: "error", Error: &dto.ErrorInfo{Code: code, Message: domainErr.Message}}
		}
	}
	return wsFrame{Type: "error", Error: &dto.ErrorInfo{Code: dto.ErrCodeInternal, Message: internalErrorMessage}}
}
