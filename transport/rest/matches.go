package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/internal/wire"
	"github.com/rocketscienceinc/tictactoe-matches/transport/response"
)

type matchHandler struct {
	logger *slog.Logger

	matches matchService
}

type enterRequest struct {
	MatchType string `json:"matchType"`
}

type playRequest struct {
	Move    string `json:"move"`
	Version *int64 `json:"version"`
}

func (that *matchHandler) Enter(ctx echo.Context) error {
	log := that.logger.With("method", "Enter")

	var req enterRequest
	if err := ctx.Bind(&req); err != nil {
		return fail(ctx, log, response.ErrBadRequest)
	}

	match, err := that.matches.EnterMatch(ctx.Request().Context(), currentUser(ctx), entity.MatchType(req.MatchType))
	if err != nil {
		return fail(ctx, log, err)
	}

	return ctx.JSON(http.StatusOK, wire.EncodeMatch(match))
}

func (that *matchHandler) Current(ctx echo.Context) error {
	log := that.logger.With("method", "Current")

	match, err := that.matches.GetMatchByUser(ctx.Request().Context(), currentUser(ctx))
	if err != nil {
		return fail(ctx, log, err)
	}

	return ctx.JSON(http.StatusOK, wire.EncodeMatch(match))
}

func (that *matchHandler) Waiting(ctx echo.Context) error {
	log := that.logger.With("method", "Waiting")

	match, err := that.matches.GetWaitingMatch(ctx.Request().Context(), entity.MatchType(ctx.Param("type")))
	if err != nil {
		return fail(ctx, log, err)
	}

	return ctx.JSON(http.StatusOK, wire.EncodeMatch(match))
}

// Get returns the match, or VERSION_MISMATCH when minVersion is given and the match is older.
func (that *matchHandler) Get(ctx echo.Context) error {
	log := that.logger.With("method", "Get")

	var (
		match entity.Match
		err   error
	)

	if raw := ctx.QueryParam("minVersion"); raw != "" {
		minVersion, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			return fail(ctx, log, fmt.Errorf("%w: minVersion %q", response.ErrBadRequest, raw))
		}

		match, err = that.matches.GetMatchByVersion(ctx.Request().Context(), ctx.Param("id"), minVersion)
	} else {
		match, err = that.matches.GetMatchByID(ctx.Request().Context(), ctx.Param("id"))
	}

	if err != nil {
		return fail(ctx, log, err)
	}

	return ctx.JSON(http.StatusOK, wire.EncodeMatch(match))
}

func (that *matchHandler) Play(ctx echo.Context) error {
	log := that.logger.With("method", "Play")

	var req playRequest
	if err := ctx.Bind(&req); err != nil {
		return fail(ctx, log, response.ErrBadRequest)
	}

	if req.Version == nil {
		return fail(ctx, log, fmt.Errorf("%w: version is required", response.ErrBadRequest))
	}

	move, err := entity.ParseMove(req.Move)
	if err != nil {
		return fail(ctx, log, err)
	}

	match, err := that.matches.PlayMatch(ctx.Request().Context(), ctx.Param("id"), currentUser(ctx), move, *req.Version)
	if err != nil {
		return fail(ctx, log, err)
	}

	return ctx.JSON(http.StatusOK, wire.EncodeMatch(match))
}

func (that *matchHandler) Forfeit(ctx echo.Context) error {
	log := that.logger.With("method", "Forfeit")

	match, err := that.matches.Forfeit(ctx.Request().Context(), ctx.Param("id"), currentUser(ctx))
	if err != nil {
		return fail(ctx, log, err)
	}

	return ctx.JSON(http.StatusOK, wire.EncodeMatch(match))
}

func (that *matchHandler) Cancel(ctx echo.Context) error {
	log := that.logger.With("method", "Cancel")

	if err := that.matches.CancelSearch(ctx.Request().Context(), currentUser(ctx), ctx.Param("id")); err != nil {
		return fail(ctx, log, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}
