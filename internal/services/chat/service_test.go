package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/models"
)

// mockAI implements GenAIClient with overridable functions.
type mockAI struct {
	generateContentFunc func(ctx context.Context, prompt string) (string, error)
	chatCompletionFunc  func(ctx context.Context, system string, transcript []models.ChatTurn) (string, error)
}

func (m *mockAI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return m.generateContentFunc(ctx, prompt)
}

func (m *mockAI) ChatCompletion(ctx context.Context, system string, transcript []models.ChatTurn) (string, error) {
	return m.chatCompletionFunc(ctx, system, transcript)
}

func newTestChatService(ai *mockAI) *Service {
	if ai == nil {
		return NewService(nil, time.Hour, common.NewSilentLogger())
	}
	return NewService(ai, time.Hour, common.NewSilentLogger())
}

func TestSendMessageUnconfigured(t *testing.T) {
	svc := newTestChatService(nil)

	assert.False(t, svc.Enabled())

	_, err := svc.SendMessage(context.Background(), "session-1", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnavailable)
	assert.Equal(t, 0, svc.SessionCount(), "no session is created when the gateway is absent")
}

func TestSendMessageSeedsNewSession(t *testing.T) {
	var seen []models.ChatTurn
	ai := &mockAI{
		chatCompletionFunc: func(ctx context.Context, system string, transcript []models.ChatTurn) (string, error) {
			assert.Equal(t, systemPreamble, system)
			seen = append([]models.ChatTurn(nil), transcript...)
			return "  Sure, ask away.  ", nil
		},
	}
	svc := newTestChatService(ai)

	reply, err := svc.SendMessage(context.Background(), "session-1", "What is a P/E ratio?")
	require.NoError(t, err)
	assert.Equal(t, "Sure, ask away.", reply, "reply is trimmed")

	// First call sees the seed transcript plus the user turn
	require.Len(t, seen, 3)
	assert.Equal(t, models.RoleSystem, seen[0].Role)
	assert.Equal(t, systemPreamble, seen[0].Text)
	assert.Equal(t, models.RoleAssistant, seen[1].Role)
	assert.Equal(t, greeting, seen[1].Text)
	assert.Equal(t, models.RoleUser, seen[2].Role)
	assert.Equal(t, "What is a P/E ratio?", seen[2].Text)

	assert.Equal(t, 1, svc.SessionCount())
}

func TestSendMessageAccumulatesTranscript(t *testing.T) {
	var calls [][]models.ChatTurn
	ai := &mockAI{
		chatCompletionFunc: func(ctx context.Context, system string, transcript []models.ChatTurn) (string, error) {
			calls = append(calls, append([]models.ChatTurn(nil), transcript...))
			return fmt.Sprintf("reply %d", len(calls)), nil
		},
	}
	svc := newTestChatService(ai)

	_, err := svc.SendMessage(context.Background(), "session-1", "first")
	require.NoError(t, err)
	_, err = svc.SendMessage(context.Background(), "session-1", "second")
	require.NoError(t, err)

	require.Len(t, calls, 2)
	// seed (2) + first user turn
	assert.Len(t, calls[0], 3)
	// seed (2) + first exchange (2) + second user turn
	require.Len(t, calls[1], 5)
	assert.Equal(t, "first", calls[1][2].Text)
	assert.Equal(t, models.RoleAssistant, calls[1][3].Role)
	assert.Equal(t, "reply 1", calls[1][3].Text)
	assert.Equal(t, "second", calls[1][4].Text)
}

func TestSendMessageSessionsAreIsolated(t *testing.T) {
	ai := &mockAI{
		chatCompletionFunc: func(ctx context.Context, system string, transcript []models.ChatTurn) (string, error) {
			// Transcript length reveals how many exchanges this session has seen
			return fmt.Sprintf("len=%d", len(transcript)), nil
		},
	}
	svc := newTestChatService(ai)

	reply, err := svc.SendMessage(context.Background(), "a", "hi")
	require.NoError(t, err)
	assert.Equal(t, "len=3", reply)

	reply, err = svc.SendMessage(context.Background(), "b", "hi")
	require.NoError(t, err)
	assert.Equal(t, "len=3", reply, "new session starts from the seed")

	assert.Equal(t, 2, svc.SessionCount())
}

func TestSendMessageGatewayFaultLeavesTranscriptClean(t *testing.T) {
	fail := true
	ai := &mockAI{
		chatCompletionFunc: func(ctx context.Context, system string, transcript []models.ChatTurn) (string, error) {
			if fail {
				return "", errors.New("gateway timeout")
			}
			// The failed exchange must not have been persisted
			assert.Len(t, transcript, 3)
			return "ok", nil
		},
	}
	svc := newTestChatService(ai)

	_, err := svc.SendMessage(context.Background(), "session-1", "first try")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrUnavailable)

	fail = false
	reply, err := svc.SendMessage(context.Background(), "session-1", "second try")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}

func TestSendMessageConcurrentSameSession(t *testing.T) {
	const messages = 20

	ai := &mockAI{
		chatCompletionFunc: func(ctx context.Context, system string, transcript []models.ChatTurn) (string, error) {
			return "ack", nil
		},
	}
	svc := newTestChatService(ai)

	var wg sync.WaitGroup
	for i := 0; i < messages; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SendMessage(context.Background(), "shared", fmt.Sprintf("msg %d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// All exchanges landed in one session without interleaving
	sess := svc.store.GetOrCreate("shared", nil)
	sess.Lock()
	defer sess.Unlock()
	assert.Len(t, sess.Turns(), 2+2*messages)
}

func TestStoreExpiry(t *testing.T) {
	store := NewStore(20 * time.Millisecond)
	store.GetOrCreate("a", seedTranscript())
	assert.Equal(t, 1, store.Len())

	time.Sleep(60 * time.Millisecond)

	// Expired sessions are re-seeded on next use
	sess := store.GetOrCreate("a", seedTranscript())
	sess.Lock()
	defer sess.Unlock()
	assert.Len(t, sess.Turns(), 2)
}
