package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/transport/response"
)

const (
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type matchService interface {
	EnterMatch(ctx context.Context, userID int64, matchType entity.MatchType) (entity.Match, error)
	GetMatchByID(ctx context.Context, matchID string) (entity.Match, error)
	GetMatchByUser(ctx context.Context, userID int64) (entity.Match, error)
	GetMatchByVersion(ctx context.Context, matchID string, minVersion int64) (entity.Match, error)
	PlayMatch(ctx context.Context, matchID string, userID int64, move entity.Move, expectedVersion int64) (entity.Match, error)
	Forfeit(ctx context.Context, matchID string, userID int64) (entity.Match, error)
	CancelSearch(ctx context.Context, userID int64, matchID string) error
}

type tokenParser interface {
	ParseToken(token string) (int64, error)
}

// handlerFunc runs one action for userID. A zero match is sent back without a match payload.
type handlerFunc func(ctx context.Context, userID int64, payload Payload) (entity.Match, error)

type Server struct {
	logger   *slog.Logger
	matches  matchService
	auth     tokenParser
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc

	// broadcast marks actions whose result is pushed to the other participant as well
	broadcast map[string]bool

	clientsMutex sync.RWMutex
	clients      map[int64]map[*client]struct{}
}

func New(logger *slog.Logger, matches matchService, auth tokenParser) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		matches: matches,
		auth:    auth,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		handlers:  make(map[string]handlerFunc),
		broadcast: make(map[string]bool),
		clients:   make(map[int64]map[*client]struct{}),
	}

	server.handlers[actionEnter] = server.handleEnter
	server.handlers[actionGet] = server.handleGet
	server.handlers[actionPlay] = server.handlePlay
	server.handlers[actionForfeit] = server.handleForfeit
	server.handlers[actionCancel] = server.handleCancel

	server.broadcast[actionEnter] = true
	server.broadcast[actionPlay] = true
	server.broadcast[actionForfeit] = true

	return server
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	userID, err := that.auth.ParseToken(req.URL.Query().Get("token"))
	if err != nil {
		status, body := response.FromError(err)
		http.Error(writer, body.Message, status)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{conn: conn}
	that.register(userID, c)

	defer func() {
		that.unregister(userID, c)
		_ = conn.Close()
	}()

	log.Info("WebSocket connection established", "user_id", userID)

	that.handleMessages(req.Context(), userID, c)
}

// handleMessages - processes messages from the client until the connection closes.
func (that *Server) handleMessages(ctx context.Context, userID int64, c *client) {
	log := that.logger.With("method", "handleMessages", "user_id", userID)

	for {
		var message Message
		if err := c.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		if err := that.dispatch(ctx, userID, c, message); err != nil {
			log.Error("failed to send response", "action", message.Action, "error", err)
			return
		}
	}
}

func (that *Server) register(userID int64, c *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	if that.clients[userID] == nil {
		that.clients[userID] = make(map[*client]struct{})
	}
	that.clients[userID][c] = struct{}{}
}

func (that *Server) unregister(userID int64, c *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	delete(that.clients[userID], c)
	if len(that.clients[userID]) == 0 {
		delete(that.clients, userID)
	}
}

func (that *Server) clientsOf(userID int64) []*client {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	clients := make([]*client, 0, len(that.clients[userID]))
	for c := range that.clients[userID] {
		clients = append(clients, c)
	}

	return clients
}

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (that *client) send(resp Response) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON(resp); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
