// Package inbound defines the interfaces the web layer drives. The
// orchestrator exposes exactly one synchronous call.
package inbound

import (
	"context"

	appsuggestion "github.com/kruger4712/mealprep/internal/application/suggestion"
	"github.com/kruger4712/mealprep/internal/domain/suggestion"
)

// SuggestionService is the single entry point of the orchestration
// subsystem. Implementations: the coordinator directly, or the batcher when
// request coalescing is enabled.
type SuggestionService interface {
	GenerateSuggestions(ctx context.Context, req suggestion.SuggestionRequest, tier string) (*appsuggestion.Result, error)
}
