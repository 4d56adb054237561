package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/models"
)

type mockAI struct {
	generateContentFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockAI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return m.generateContentFunc(ctx, prompt)
}

func (m *mockAI) ChatCompletion(ctx context.Context, system string, transcript []models.ChatTurn) (string, error) {
	return "", errors.New("not used")
}

func f(v float64) *float64 { return &v }

func snapshotFixture() *models.QuoteSnapshot {
	return &models.QuoteSnapshot{
		Name:      "Apple Inc.",
		Symbol:    "AAPL",
		Price:     f(150.25),
		Revenue:   f(383.3e9),
		NetIncome: f(97e9),
		PERatio:   f(28.5),
		ROE:       f(1.47),
		NetMargin: f(0.253),
	}
}

func TestCommentUnconfigured(t *testing.T) {
	gen := NewGenerator(nil, common.NewSilentLogger())
	got := gen.Comment(context.Background(), snapshotFixture())
	assert.Equal(t, FallbackComment, got)
}

func TestCommentGatewayFault(t *testing.T) {
	ai := &mockAI{
		generateContentFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	gen := NewGenerator(ai, common.NewSilentLogger())

	// A fault degrades to the fallback sentence, never an error
	got := gen.Comment(context.Background(), snapshotFixture())
	assert.Equal(t, FallbackComment, got)
}

func TestCommentSuccess(t *testing.T) {
	var prompt string
	ai := &mockAI{
		generateContentFunc: func(ctx context.Context, p string) (string, error) {
			prompt = p
			return "  A solid quarter overall.\n", nil
		},
	}
	gen := NewGenerator(ai, common.NewSilentLogger())

	got := gen.Comment(context.Background(), snapshotFixture())
	assert.Equal(t, "A solid quarter overall.", got, "reply is trimmed")

	assert.Contains(t, prompt, "Apple Inc.")
	assert.Contains(t, prompt, "$150.25")
	assert.Contains(t, prompt, "$383.3B")
	assert.Contains(t, prompt, "$97.0B")
	assert.Contains(t, prompt, "28.5")
	assert.Contains(t, prompt, "147.0%")
	assert.Contains(t, prompt, "25.3%")
	assert.Contains(t, prompt, "Do not give investment advice.")
}

func TestCommentPromptMissingFigures(t *testing.T) {
	var prompt string
	ai := &mockAI{
		generateContentFunc: func(ctx context.Context, p string) (string, error) {
			prompt = p
			return "ok", nil
		},
	}
	gen := NewGenerator(ai, common.NewSilentLogger())

	gen.Comment(context.Background(), &models.QuoteSnapshot{Name: "Shell plc", Symbol: "SHEL"})
	assert.Contains(t, prompt, "Shell plc")
	assert.Contains(t, prompt, "N/A", "absent figures are spelled out, not zeroed")
}
