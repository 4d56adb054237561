package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/interfaces"
	"github.com/finanalyse/finanalyse/internal/models"
)

// systemPreamble is the fixed system-role instruction seeding every session.
const systemPreamble = "You are the FinAnalyse assistant, a financial analysis helper for a " +
	"stock research website. You explain company fundamentals, ratios and market concepts " +
	"in clear, accessible language. You never give personalised investment advice and you " +
	"remind users to do their own research when they ask what to buy or sell."

// greeting is the fixed assistant-role opener seeding every session.
const greeting = "Hello! I'm the FinAnalyse assistant. Ask me about a company, a financial " +
	"ratio, or anything you saw on the dashboard."

// Service implements ChatService.
type Service struct {
	ai     interfaces.GenAIClient // nil when the AI gateway is not configured
	store  *Store
	logger *common.Logger
}

// NewService creates a chat service. ai may be nil; SendMessage then reports
// the feature as unavailable before any session lookup.
func NewService(ai interfaces.GenAIClient, sessionTTL time.Duration, logger *common.Logger) *Service {
	return &Service{
		ai:     ai,
		store:  NewStore(sessionTTL),
		logger: logger,
	}
}

// Enabled reports whether the AI gateway is configured.
func (s *Service) Enabled() bool {
	return s.ai != nil
}

// seedTranscript returns the fixed opening transcript for a new session.
func seedTranscript() []models.ChatTurn {
	return []models.ChatTurn{
		{Role: models.RoleSystem, Text: systemPreamble},
		{Role: models.RoleAssistant, Text: greeting},
	}
}

// SendMessage appends the user's turn to the session transcript, forwards the
// full transcript to the AI gateway and stores the gateway's reply. Sessions
// are created lazily on first message.
func (s *Service) SendMessage(ctx context.Context, sessionID, message string) (string, error) {
	if s.ai == nil {
		return "", fmt.Errorf("AI chat is not configured: %w", models.ErrUnavailable)
	}

	sess := s.store.GetOrCreate(sessionID, seedTranscript())
	sess.Lock()
	defer sess.Unlock()

	transcript := append(sess.Turns(), models.ChatTurn{Role: models.RoleUser, Text: message})

	reply, err := s.ai.ChatCompletion(ctx, systemPreamble, transcript)
	if err != nil {
		return "", fmt.Errorf("chat completion for session %s: %w", sessionID, err)
	}
	reply = strings.TrimSpace(reply)

	sess.SetTurns(append(transcript, models.ChatTurn{Role: models.RoleAssistant, Text: reply}))

	return reply, nil
}

// SessionCount returns the number of live sessions, for diagnostics.
func (s *Service) SessionCount() int {
	return s.store.Len()
}

// Ensure Service implements ChatService
var _ interfaces.ChatService = (*Service)(nil)
