package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pinpanclub/pingpong-backend/internal/entity"
	"github.com/pinpanclub/pingpong-backend/internal/scoring"
)

type matchManager interface {
	GetMatch(ctx context.Context, matchID string) (*entity.Match, error)
	StartMatch(ctx context.Context, matchID string) (*entity.Match, error)
	PauseMatch(ctx context.Context, matchID string) (*entity.Match, error)
	ResumeMatch(ctx context.Context, matchID string) (*entity.Match, error)
	CancelMatch(ctx context.Context, matchID string) (*entity.Match, error)
	AddPoint(ctx context.Context, matchID, player, pointType string) (*entity.Match, *scoring.Outcome, error)
	Undo(ctx context.Context, matchID string) (*entity.Match, error)
}

type Server struct {
	logger       *slog.Logger
	matchManager matchManager
	hub          *Hub

	handlers map[string]func(ctx context.Context, message *Message, conn *connection) error
}

func New(logger *slog.Logger, matchManager matchManager, hub *Hub) *Server {
	server := &Server{
		logger:       logger,
		matchManager: matchManager,
		hub:          hub,

		handlers: make(map[string]func(context.Context, *Message, *connection) error),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["match:subscribe"] = server.handleSubscribe
	server.handlers["match:unsubscribe"] = server.handleUnsubscribe
	server.handlers["match:start"] = server.handleStart
	server.handlers["match:pause"] = server.handlePause
	server.handlers["match:resume"] = server.handleResume
	server.handlers["match:cancel"] = server.handleCancel
	server.handlers["match:point"] = server.handlePoint
	server.handlers["match:undo"] = server.handleUndo

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	// no read/write timeouts here, live sockets stay open between points
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		IdleTimeout: 30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	session := that.sessionFromCookie(writer, req)

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking", "error", http.StatusText(http.StatusInternalServerError))
		return
	}

	netConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer netConn.Close()

	conn := &connection{session: session, bufrw: bufrw}
	defer that.hub.Drop(conn)

	log.Info("WebSocket connection established", "session", session)

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "HandleMessages")

	for {
		reqBody, err := conn.readRequest()
		if err != nil {
			log.Error("error reading message", "error", err)
			return err
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "error", err)
		}
	}
}

// sessionFromCookie - reads the arbiter session, creating one if needed.
func (that *Server) sessionFromCookie(writer http.ResponseWriter, req *http.Request) string {
	log := that.logger.With("method", "sessionFromCookie")

	cookie, err := req.Cookie("user_session")
	if err != nil {
		cookie = &http.Cookie{
			Name:    "user_session",
			Value:   GenerateNewSessionID(),
			Expires: time.Now().Add(24 * time.Hour),
			Path:    "/live",
		}
		http.SetCookie(writer, cookie)
		log.Info("session cookie not found, new one created", "cookie", cookie.Value)
		return cookie.Value
	}

	log.Info("session cookie found", "cookie", cookie.Value)

	return cookie.Value
}
