package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/Harshitk-cp/concierge/internal/knowledge"
	"github.com/Harshitk-cp/concierge/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionIDRequired = errors.New("session_id is required")
	ErrSessionNotFound   = errors.New("session not found")
	ErrBookingFailed     = errors.New("booking could not be completed")
)

// stageResult is what a stage handler decided for one message.
type stageResult struct {
	reply *domain.Reply
	// done ends the conversation: the session is removed.
	done bool
	err  error
}

type stageHandler func(ctx context.Context, sess *domain.Session, input string) stageResult

// ConversationService walks a session through greet, amenity, slot and email
// and hands the completed booking to the sink.
type ConversationService struct {
	kb       *knowledge.Base
	sessions domain.SessionStore
	sink     domain.BookingSink
	logger   *zap.Logger
	now      func() time.Time

	transitions map[domain.Stage]stageHandler
}

func NewConversationService(kb *knowledge.Base, sessions domain.SessionStore, sink domain.BookingSink, logger *zap.Logger) *ConversationService {
	s := &ConversationService{
		kb:       kb,
		sessions: sessions,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
	}
	s.transitions = map[domain.Stage]stageHandler{
		domain.StageGreet:   s.handleGreet,
		domain.StageAmenity: s.handleAmenity,
		domain.StageSlot:    s.handleSlot,
		domain.StageEmail:   s.handleEmail,
	}
	return s
}

// HandleMessage processes one user message for sessionID. Unmatched input
// is answered with a re-prompt, never an error. The returned error is
// non-nil only for store failures and ErrBookingFailed; in the latter case
// the reply carries an apology for the user.
func (s *ConversationService) HandleMessage(ctx context.Context, sessionID, message string) (*domain.Reply, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionIDRequired
	}

	sess, release, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	sess.AppendTurn(domain.RoleUser, message, s.now().UTC())

	stage := sess.Stage
	handler, ok := s.transitions[stage]
	var res stageResult
	if ok {
		res = handler(ctx, sess, message)
	} else {
		s.logger.Warn("session in unknown stage",
			zap.String("session_id", sessionID),
			zap.String("stage", string(stage)))
		res = stageResult{reply: fallbackReply(stage)}
	}

	if res.done {
		if err := s.sessions.Remove(ctx, sessionID); err != nil {
			s.logger.Error("failed to remove completed session",
				zap.String("session_id", sessionID), zap.Error(err))
		}
		return res.reply, nil
	}

	sess.AppendTurn(domain.RoleAgent, res.reply.Message, s.now().UTC())
	if sess.Stage != stage {
		s.logger.Debug("conversation advanced",
			zap.String("session_id", sessionID),
			zap.String("from", string(stage)),
			zap.String("to", string(sess.Stage)))
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return res.reply, res.err
}

// History returns the transcript of a live session.
func (s *ConversationService) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess.History, nil
}

func (s *ConversationService) handleGreet(ctx context.Context, sess *domain.Session, input string) stageResult {
	community, ok := s.kb.MatchCommunity(input)
	if !ok {
		return prompt(domain.StageGreet)
	}
	sess.Fields.Community = community
	sess.Stage = domain.StageAmenity
	return prompt(domain.StageAmenity)
}

func (s *ConversationService) handleAmenity(ctx context.Context, sess *domain.Session, input string) stageResult {
	community := sess.Fields.Community
	amenity, ok := s.kb.ResolveAmenity(community, input)
	if !ok {
		return stageResult{reply: domain.TextReply(msgAmenityUnavailable(community))}
	}

	slots := s.kb.Slots(community, amenity)
	if len(slots) == 0 {
		// Stay here so the user can pick another amenity.
		return stageResult{reply: domain.TextReply(msgNoSlots(amenity, community))}
	}

	sess.Fields.Amenity = amenity
	sess.Stage = domain.StageSlot
	return stageResult{reply: domain.SlotSelectionReply(msgSlotList(amenity, community), slots)}
}

func (s *ConversationService) handleSlot(ctx context.Context, sess *domain.Session, input string) stageResult {
	community, amenity := sess.Fields.Community, sess.Fields.Amenity
	if !s.kb.HasSlot(community, amenity, input) {
		return stageResult{reply: domain.SlotSelectionReply(msgInvalidSlot(amenity), s.kb.Slots(community, amenity))}
	}
	sess.Fields.Slot = input
	sess.Stage = domain.StageEmail
	return prompt(domain.StageEmail)
}

func (s *ConversationService) handleEmail(ctx context.Context, sess *domain.Session, input string) stageResult {
	if strings.TrimSpace(input) == "" {
		return prompt(domain.StageEmail)
	}
	sess.Fields.Email = input
	ref, err := uuid.Parse(sess.Fields.Reference)
	if err != nil {
		ref = uuid.New()
		sess.Fields.Reference = ref.String()
	}
	// The reference must be stored before the sink runs so a retry after a
	// lost reply reuses the same booking row.
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Error("failed to save session before booking",
			zap.String("session_id", sess.ID), zap.Error(err))
		return stageResult{
			reply: domain.TextReply(msgBookingFailed),
			err:   fmt.Errorf("%w: save session: %v", ErrBookingFailed, err),
		}
	}

	req := domain.BookingRequest{
		Reference: ref,
		Email:     sess.Fields.Email,
		Community: sess.Fields.Community,
		Amenity:   sess.Fields.Amenity,
		Slot:      sess.Fields.Slot,
	}
	booking, err := s.sink.Confirm(ctx, req)
	if err != nil {
		s.logger.Error("booking failed",
			zap.String("session_id", sess.ID),
			zap.String("reference", sess.Fields.Reference),
			zap.Error(err))
		if !errors.Is(err, ErrBookingFailed) {
			err = fmt.Errorf("%w: %v", ErrBookingFailed, err)
		}
		return stageResult{reply: domain.TextReply(msgBookingFailed), err: err}
	}

	s.logger.Info("booking confirmed",
		zap.String("session_id", sess.ID),
		zap.String("reference", booking.Reference.String()),
		zap.String("community", booking.Community),
		zap.String("amenity", booking.Amenity),
		zap.String("slot", booking.Slot))
	return stageResult{reply: domain.TextReply(msgConfirmed(booking)), done: true}
}

func prompt(stage domain.Stage) stageResult {
	p, _ := promptFor(stage)
	return stageResult{reply: domain.TextReply(p)}
}

func fallbackReply(stage domain.Stage) *domain.Reply {
	if p, ok := promptFor(stage); ok {
		return domain.TextReply(msgDidNotCatch + " " + p)
	}
	return domain.TextReply(msgDidNotCatch)
}
