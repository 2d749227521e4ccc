package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/internal/repository"
	"github.com/rocketscienceinc/tictactoe-matches/internal/service"
	"github.com/rocketscienceinc/tictactoe-matches/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-matches/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-matches/transport/response"
)

const (
	alice int64 = 1
	bob   int64 = 2
)

type everyoneExists struct{}

func (everyoneExists) Exists(context.Context, int64) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, service.AuthService) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	catalog := entity.NewCatalog(nil).Register(entity.TicTacToe, tictactoe.Game{})
	matches := usecase.NewMatchManager(logger, repository.NewMemoryMatchRepository(), everyoneExists{}, catalog)
	auth := service.NewAuthService("secret", time.Hour)

	srv := httptest.NewServer(New(logger, matches, auth).Handler())
	t.Cleanup(srv.Close)

	return srv, auth
}

func dial(t *testing.T, srv *httptest.Server, auth service.AuthService, userID int64) *websocket.Conn {
	t.Helper()

	token, err := auth.GenerateToken(userID)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload Payload) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{"action": action, "payload": payload}))
}

func receive(t *testing.T, conn *websocket.Conn) Response {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))

	return resp
}

func version(v int64) *int64 {
	return &v
}

func TestServer_RejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Match(t *testing.T) {
	srv, auth := newTestServer(t)

	aliceConn := dial(t, srv, auth, alice)
	bobConn := dial(t, srv, auth, bob)

	// When: alice enters
	send(t, aliceConn, actionEnter, Payload{MatchType: "TIC_TAC_TOE"})

	// Then: a waiting match is returned
	resp := receive(t, aliceConn)
	assert.Equal(t, actionEnter, resp.Action)
	require.NotNil(t, resp.Payload.Match)
	assert.Equal(t, "WAITING", resp.Payload.Match.State)

	// When: bob enters
	send(t, bobConn, actionEnter, Payload{MatchType: "TIC_TAC_TOE"})

	// Then: both receive the running match
	resp = receive(t, bobConn)
	require.NotNil(t, resp.Payload.Match)
	match := *resp.Payload.Match
	assert.Equal(t, "RUNNING", match.State)
	assert.Equal(t, int64(1), match.Version)

	resp = receive(t, aliceConn)
	require.NotNil(t, resp.Payload.Match)
	assert.Equal(t, match, *resp.Payload.Match)

	moverConn, otherConn, color := aliceConn, bobConn, match.Player1Type
	if match.Board.Turn != match.Player1Type {
		moverConn, otherConn, color = bobConn, aliceConn, match.Player2Type
	}

	// When: the mover plays against a stale version
	send(t, moverConn, actionPlay, Payload{MatchID: match.ID, Move: color + ",1a", Version: version(0)})

	// Then: VERSION_MISMATCH is reported
	resp = receive(t, moverConn)
	assert.Equal(t, actionPlay, resp.Action)
	require.NotNil(t, resp.Payload.Error)
	assert.Equal(t, "VERSION_MISMATCH", resp.Payload.Error.Code)

	// When: the mover plays the current version
	send(t, moverConn, actionPlay, Payload{MatchID: match.ID, Move: color + ",1a", Version: version(1)})

	// Then: both sides see the move
	resp = receive(t, moverConn)
	require.NotNil(t, resp.Payload.Match)
	assert.Equal(t, int64(2), resp.Payload.Match.Version)

	resp = receive(t, otherConn)
	require.NotNil(t, resp.Payload.Match)
	assert.Equal(t, []string{color + ",1a"}, resp.Payload.Match.Board.Moves)

	// When: polling for a version the server does not have yet
	send(t, otherConn, actionGet, Payload{MatchID: match.ID, MinVersion: version(3)})

	// Then: VERSION_MISMATCH is reported
	resp = receive(t, otherConn)
	require.NotNil(t, resp.Payload.Error)
	assert.Equal(t, "VERSION_MISMATCH", resp.Payload.Error.Code)

	// When: the current match is requested
	send(t, otherConn, actionGet, Payload{})

	// Then: the running match is returned
	resp = receive(t, otherConn)
	require.NotNil(t, resp.Payload.Match)
	assert.Equal(t, match.ID, resp.Payload.Match.ID)

	// When: the other player forfeits
	send(t, otherConn, actionForfeit, Payload{MatchID: match.ID})

	// Then: both receive the finished match
	resp = receive(t, otherConn)
	require.NotNil(t, resp.Payload.Match)
	assert.Equal(t, "WIN", resp.Payload.Match.State)

	resp = receive(t, moverConn)
	require.NotNil(t, resp.Payload.Match)
	assert.Equal(t, "WIN", resp.Payload.Match.State)
	assert.Equal(t, color, *resp.Payload.Match.Board.Winner)
}

func TestServer_Errors(t *testing.T) {
	srv, auth := newTestServer(t)
	conn := dial(t, srv, auth, alice)

	t.Run("Unknown action", func(t *testing.T) {
		send(t, conn, "match:dance", Payload{})

		resp := receive(t, conn)

		assert.Equal(t, actionUnknown, resp.Action)
		require.NotNil(t, resp.Payload.Error)
		assert.Equal(t, response.CodeBadRequest, resp.Payload.Error.Code)
	})

	t.Run("Missing version", func(t *testing.T) {
		send(t, conn, actionPlay, Payload{MatchID: "m", Move: "BLACK,1a"})

		resp := receive(t, conn)

		require.NotNil(t, resp.Payload.Error)
		assert.Equal(t, response.CodeBadRequest, resp.Payload.Error.Code)
	})

	t.Run("Cancel", func(t *testing.T) {
		send(t, conn, actionEnter, Payload{MatchType: "TIC_TAC_TOE"})
		resp := receive(t, conn)
		require.NotNil(t, resp.Payload.Match)

		send(t, conn, actionCancel, Payload{MatchID: resp.Payload.Match.ID})
		resp = receive(t, conn)

		assert.Equal(t, actionCancel, resp.Action)
		assert.Nil(t, resp.Payload.Error)
		assert.Nil(t, resp.Payload.Match)

		send(t, conn, actionCancel, Payload{MatchID: "missing"})
		resp = receive(t, conn)

		require.NotNil(t, resp.Payload.Error)
		assert.Equal(t, "MATCH_NOT_FOUND", resp.Payload.Error.Code)
	})
}
