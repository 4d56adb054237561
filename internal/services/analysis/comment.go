// Package analysis generates the natural-language analysis comment attached
// to company snapshots.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/finanalyse/finanalyse/internal/common"
	"github.com/finanalyse/finanalyse/internal/interfaces"
	"github.com/finanalyse/finanalyse/internal/models"
)

// FallbackComment is returned whenever the AI gateway is disabled or fails.
// The snapshot endpoint must succeed regardless of the AI feature's state.
const FallbackComment = "AI analysis is currently unavailable."

// Generator implements CommentGenerator.
type Generator struct {
	ai     interfaces.GenAIClient // nil when the AI gateway is not configured
	logger *common.Logger
}

// NewGenerator creates a comment generator. ai may be nil.
func NewGenerator(ai interfaces.GenAIClient, logger *common.Logger) *Generator {
	return &Generator{
		ai:     ai,
		logger: logger,
	}
}

// Comment produces a short analysis comment for the snapshot. It never
// returns an error: any fault degrades to the fixed fallback sentence.
func (g *Generator) Comment(ctx context.Context, snapshot *models.QuoteSnapshot) string {
	if g.ai == nil {
		return FallbackComment
	}

	text, err := g.ai.GenerateContent(ctx, buildCommentPrompt(snapshot))
	if err != nil {
		g.logger.Warn().Err(err).Str("symbol", snapshot.Symbol).Msg("Analysis comment generation failed")
		return FallbackComment
	}

	return strings.TrimSpace(text)
}

// buildCommentPrompt creates the fixed prompt for a snapshot.
func buildCommentPrompt(snap *models.QuoteSnapshot) string {
	return fmt.Sprintf(`Write a short financial commentary for %s based on these figures:
- Share price: %s
- Annual revenue: %s
- Net income: %s
- P/E ratio: %s
- Return on equity: %s
- Net margin: %s

State one strength and one point of caution, then close with a neutral sentence.
Do not give investment advice.`,
		snap.Name,
		formatPrice(snap.Price),
		formatBillions(snap.Revenue),
		formatBillions(snap.NetIncome),
		formatRatio(snap.PERatio),
		formatPercent(snap.ROE),
		formatPercent(snap.NetMargin),
	)
}

func formatPrice(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *v)
}

func formatBillions(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.1fB", *v/1e9)
}

func formatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func formatRatio(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}

// Ensure Generator implements CommentGenerator
var _ interfaces.CommentGenerator = (*Generator)(nil)
