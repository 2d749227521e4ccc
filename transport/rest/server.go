package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type matchService interface {
	EnterMatch(ctx context.Context, userID int64, matchType entity.MatchType) (entity.Match, error)
	GetMatchByID(ctx context.Context, matchID string) (entity.Match, error)
	GetMatchByUser(ctx context.Context, userID int64) (entity.Match, error)
	GetWaitingMatch(ctx context.Context, matchType entity.MatchType) (entity.Match, error)
	GetMatchByVersion(ctx context.Context, matchID string, minVersion int64) (entity.Match, error)
	PlayMatch(ctx context.Context, matchID string, userID int64, move entity.Move, expectedVersion int64) (entity.Match, error)
	Forfeit(ctx context.Context, matchID string, userID int64) (entity.Match, error)
	CancelSearch(ctx context.Context, userID int64, matchID string) error
}

type userUseCase interface {
	Register(ctx context.Context, username string) (entity.User, error)
}

type authService interface {
	GenerateToken(userID int64) (string, error)
	ParseToken(token string) (int64, error)
}

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

func New(logger *slog.Logger, matches matchService, users userUseCase, auth authService) *Server {
	logger = logger.With("component", "rest")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/ping", ping)

	userHandler := &userHandler{logger: logger, users: users, auth: auth}
	e.POST("/users", userHandler.Register)

	matchHandler := &matchHandler{logger: logger, matches: matches}
	group := e.Group("/matches", authenticate(logger, auth))
	group.POST("", matchHandler.Enter)
	group.GET("/current", matchHandler.Current)
	group.GET("/waiting/:type", matchHandler.Waiting)
	group.GET("/:id", matchHandler.Get)
	group.POST("/:id/moves", matchHandler.Play)
	group.POST("/:id/forfeit", matchHandler.Forfeit)
	group.DELETE("/:id", matchHandler.Cancel)

	return &Server{
		logger: logger,
		echo:   e,
	}
}

func (that *Server) Handler() http.Handler {
	return that.echo
}

// Start - serves HTTP until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := that.echo.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	that.echo.Server.ReadTimeout = 10 * time.Second
	that.echo.Server.WriteTimeout = 10 * time.Second
	that.echo.Server.IdleTimeout = 30 * time.Second

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
