package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/internal/wire"
	"github.com/rocketscienceinc/tictactoe-matches/transport/response"
)

// dispatch runs the handler of message and answers on c. Only failures to write are returned.
func (that *Server) dispatch(ctx context.Context, userID int64, c *client, message Message) error {
	log := that.logger.With("method", "dispatch", "action", message.Action, "user_id", userID)

	handler, ok := that.handlers[message.Action]
	if !ok {
		return c.send(errorResponse(actionUnknown, fmt.Errorf("%w: unknown action %q", response.ErrBadRequest, message.Action)))
	}

	var payload Payload
	if len(message.Payload) > 0 {
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return c.send(errorResponse(message.Action, fmt.Errorf("%w: %w", response.ErrBadRequest, err)))
		}
	}

	match, err := handler(ctx, userID, payload)
	if err != nil {
		resp := errorResponse(message.Action, err)
		if resp.Payload.Error.Code == response.CodeInternal {
			log.Error("failed to handle message", "error", err)
		}
		return c.send(resp)
	}

	resp := Response{Action: message.Action}
	if match.ID != "" {
		dto := wire.EncodeMatch(match)
		resp.Payload.Match = &dto
	}

	if err = c.send(resp); err != nil {
		return err
	}

	if that.broadcast[message.Action] && match.ID != "" {
		that.notifyOpponent(match, userID, resp)
	}

	return nil
}

// notifyOpponent pushes the new match state to every connection of the other participant.
func (that *Server) notifyOpponent(match entity.Match, userID int64, resp Response) {
	log := that.logger.With("method", "notifyOpponent", "match_id", match.ID)

	opponent := match.Player1
	if opponent == userID {
		opponent = match.Player2
	}

	if opponent == entity.NoUser {
		return
	}

	for _, c := range that.clientsOf(opponent) {
		if err := c.send(resp); err != nil {
			log.Warn("failed to send match update", "user_id", opponent, "error", err)
		}
	}
}

func (that *Server) handleEnter(ctx context.Context, userID int64, payload Payload) (entity.Match, error) {
	return that.matches.EnterMatch(ctx, userID, entity.MatchType(payload.MatchType))
}

// handleGet returns the match by id, optionally no older than minVersion, or the user's current match.
func (that *Server) handleGet(ctx context.Context, userID int64, payload Payload) (entity.Match, error) {
	switch {
	case payload.MatchID == "":
		return that.matches.GetMatchByUser(ctx, userID)
	case payload.MinVersion != nil:
		return that.matches.GetMatchByVersion(ctx, payload.MatchID, *payload.MinVersion)
	default:
		return that.matches.GetMatchByID(ctx, payload.MatchID)
	}
}

func (that *Server) handlePlay(ctx context.Context, userID int64, payload Payload) (entity.Match, error) {
	if payload.Version == nil {
		return entity.Match{}, fmt.Errorf("%w: version is required", response.ErrBadRequest)
	}

	move, err := entity.ParseMove(payload.Move)
	if err != nil {
		return entity.Match{}, err
	}

	return that.matches.PlayMatch(ctx, payload.MatchID, userID, move, *payload.Version)
}

func (that *Server) handleForfeit(ctx context.Context, userID int64, payload Payload) (entity.Match, error) {
	return that.matches.Forfeit(ctx, payload.MatchID, userID)
}

func (that *Server) handleCancel(ctx context.Context, userID int64, payload Payload) (entity.Match, error) {
	return entity.Match{}, that.matches.CancelSearch(ctx, userID, payload.MatchID)
}

func errorResponse(action string, err error) Response {
	_, body := response.FromError(err)

	return Response{
		Action:  action,
		Payload: ResponsePayload{Error: &body},
	}
}
