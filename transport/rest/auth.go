package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-matches/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-matches/transport/response"
)

const userIDKey = "user_id"

type userHandler struct {
	logger *slog.Logger

	users userUseCase
	auth  authService
}

type registerRequest struct {
	Username string `json:"username"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type registerResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func (that *userHandler) Register(ctx echo.Context) error {
	log := that.logger.With("method", "Register")

	var req registerRequest
	if err := ctx.Bind(&req); err != nil {
		return fail(ctx, log, response.ErrBadRequest)
	}

	user, err := that.users.Register(ctx.Request().Context(), req.Username)
	if err != nil {
		return fail(ctx, log, err)
	}

	token, err := that.auth.GenerateToken(user.ID)
	if err != nil {
		return fail(ctx, log, err)
	}

	log.Info("user registered", "user_id", user.ID)

	return ctx.JSON(http.StatusCreated, registerResponse{
		User:  userResponse{ID: user.ID, Username: user.Username},
		Token: token,
	})
}

// authenticate accepts "Authorization: Bearer <token>" and stores the user id in the context.
func authenticate(logger *slog.Logger, auth authService) echo.MiddlewareFunc {
	log := logger.With("method", "authenticate")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, ok := strings.CutPrefix(ctx.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || token == "" {
				return fail(ctx, log, apperror.ErrUnauthorized)
			}

			userID, err := auth.ParseToken(token)
			if err != nil {
				return fail(ctx, log, err)
			}

			ctx.Set(userIDKey, userID)

			return next(ctx)
		}
	}
}

func currentUser(ctx echo.Context) int64 {
	userID, _ := ctx.Get(userIDKey).(int64)
	return userID
}

func fail(ctx echo.Context, log *slog.Logger, err error) error {
	status, body := response.FromError(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", ctx.Path(), "error", err)
	}

	return ctx.JSON(status, body)
}
