package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pinpanclub/pingpong-backend/internal/apperror"
	"github.com/pinpanclub/pingpong-backend/internal/entity"
	"github.com/pinpanclub/pingpong-backend/internal/repository"
)

func (that *Server) handleConnect(_ context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	payloadResp := Payload{
		Session: conn.session,
	}

	if err := conn.sendMessage(msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("viewer connected", "session", conn.session)

	return nil
}

func (that *Server) handleSubscribe(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleSubscribe")

	payloadReq, err := that.decodePayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	match, err := that.matchManager.GetMatch(ctx, payloadReq.MatchID)
	if err != nil {
		log.Error("failed to get match", "matchID", payloadReq.MatchID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("match %s: %v", payloadReq.MatchID, err))
	}

	that.hub.Subscribe(match.ID, conn)

	// the reply doubles as the recovery snapshot, it is always complete
	payloadResp := Payload{
		Match: match.PublicView(),
	}

	if err = conn.sendMessage(msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("viewer subscribed", "matchID", match.ID, "session", conn.session)

	return nil
}

func (that *Server) handleUnsubscribe(_ context.Context, msg *Message, conn *connection) error {
	payloadReq, err := that.decodePayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	that.hub.Unsubscribe(payloadReq.MatchID, conn)

	return conn.sendMessage(msg.Action, Payload{MatchID: payloadReq.MatchID})
}

func (that *Server) handleStart(ctx context.Context, msg *Message, conn *connection) error {
	return that.handleTransition(ctx, msg, conn, that.matchManager.StartMatch)
}

func (that *Server) handlePause(ctx context.Context, msg *Message, conn *connection) error {
	return that.handleTransition(ctx, msg, conn, that.matchManager.PauseMatch)
}

func (that *Server) handleResume(ctx context.Context, msg *Message, conn *connection) error {
	return that.handleTransition(ctx, msg, conn, that.matchManager.ResumeMatch)
}

func (that *Server) handleCancel(ctx context.Context, msg *Message, conn *connection) error {
	return that.handleTransition(ctx, msg, conn, that.matchManager.CancelMatch)
}

func (that *Server) handleUndo(ctx context.Context, msg *Message, conn *connection) error {
	return that.handleTransition(ctx, msg, conn, that.matchManager.Undo)
}

// handleTransition - shared path for actions that take only a match ID.
func (that *Server) handleTransition(ctx context.Context, msg *Message, conn *connection, operation func(context.Context, string) (*entity.Match, error)) error {
	log := that.logger.With("method", "handleTransition", "action", msg.Action)

	payloadReq, err := that.decodePayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	match, err := operation(ctx, payloadReq.MatchID)
	if err != nil {
		if isRuleError(err) {
			return that.sendErrorResponse(conn, msg.Action, err.Error())
		}

		log.Error("operation failed", "matchID", payloadReq.MatchID, "error", err)

		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("match %s: %v", payloadReq.MatchID, err))
	}

	payloadResp := Payload{
		Match: match.PublicView(),
	}

	return conn.sendMessage(msg.Action, payloadResp)
}

func (that *Server) handlePoint(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handlePoint")

	payloadReq, err := that.decodePayload(msg, conn)
	if err != nil || payloadReq == nil {
		return err
	}

	if payloadReq.Player == "" {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	match, outcome, err := that.matchManager.AddPoint(ctx, payloadReq.MatchID, payloadReq.Player, payloadReq.PointType)
	if err != nil {
		if isRuleError(err) {
			return that.sendErrorResponse(conn, msg.Action, err.Error())
		}

		log.Error("failed to add point", "matchID", payloadReq.MatchID, "error", err)

		return that.sendErrorResponse(conn, msg.Action, fmt.Sprintf("match %s: %v", payloadReq.MatchID, err))
	}

	payloadResp := Payload{
		Match:         match.PublicView(),
		SetWon:        outcome.SetWon,
		MatchFinished: outcome.MatchWon,
	}

	if err = conn.sendMessage(msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("point scored", "matchID", match.ID, "player", payloadReq.Player)

	return nil
}

// decodePayload - unmarshals the payload and checks the match ID is there.
// A nil payload with a nil error means the error reply was already sent.
func (that *Server) decodePayload(msg *Message, conn *connection) (*Payload, error) {
	log := that.logger.With("method", "decodePayload")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.MatchID == "" {
		log.Error("MatchID is missing in payload")
		return nil, that.sendErrorResponse(conn, msg.Action, "match_id is required")
	}

	return &payloadReq, nil
}

func (that *Server) sendErrorResponse(conn *connection, action, message string) error {
	payload := Payload{
		Error: message,
	}

	if err := conn.sendMessage(action, payload); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

// isRuleError - scoring-rule violations are reported to the caller as
// plain messages, not logged as server failures.
func isRuleError(err error) bool {
	return errors.Is(err, apperror.ErrMatchNotInProgress) ||
		errors.Is(err, apperror.ErrMatchFinished) ||
		errors.Is(err, apperror.ErrMatchCancelled) ||
		errors.Is(err, apperror.ErrInvalidTransition) ||
		errors.Is(err, apperror.ErrUnknownPlayer) ||
		errors.Is(err, apperror.ErrNothingToUndo) ||
		errors.Is(err, repository.ErrMatchNotFound)
}
