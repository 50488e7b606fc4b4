// Package insight produces the dashboard's business advice: it summarizes
// recent sales and asks a text generator for suggestions.
//
// The request is sent once. Failures are logged and replaced with a fixed
// placeholder so the dashboard never shows an error.
package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/internal/domain/transaction"
)

const (
	// FallbackMessage is shown when the insight could not be produced.
	FallbackMessage = "Gagal memuat insight bisnis."
	// NoDataMessage is shown when the generator answered with nothing.
	NoDataMessage = "Belum ada data cukup."

	defaultTopItems = 5
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service builds summaries and requests insights.
type Service struct {
	products product.Repository
	members  member.Repository
	journal  transaction.Repository
	gen      Generator

	now  func() time.Time
	topN int
}

// NewService creates an insight Service.
func NewService(
	products product.Repository,
	members member.Repository,
	journal transaction.Repository,
	gen Generator,
) *Service {
	return &Service{
		products: products,
		members:  members,
		journal:  journal,
		gen:      gen,
		now:      time.Now,
		topN:     defaultTopItems,
	}
}

// Prompt embeds the serialized summary in the advice request.
func Prompt(s Summary) string {
	return fmt.Sprintf("Analisa data penjualan berikut dan berikan 3 saran strategis untuk meningkatkan keuntungan: %s. "+
		"Berikan jawaban dalam Bahasa Indonesia yang ringkas.", s.JSON())
}

// Insight returns advice for period p. It never fails: any error yields
// FallbackMessage.
func (s *Service) Insight(ctx context.Context, p Period) string {
	lg := zctx.From(ctx).With(zap.String("period", string(p)))

	summary, err := s.BuildSummary(ctx, p)
	if err != nil {
		lg.Error("Build insight summary", zap.Error(err))
		return FallbackMessage
	}

	text, err := s.gen.Generate(ctx, Prompt(summary))
	if err != nil {
		lg.Error("Generate insight", zap.Error(err))
		return FallbackMessage
	}
	if strings.TrimSpace(text) == "" {
		return NoDataMessage
	}
	return text
}
