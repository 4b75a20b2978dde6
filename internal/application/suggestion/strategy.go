package suggestion

import (
	"context"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
)

// Strategy is the common contract every fallback level implements. Execute
// never returns a Go error: provider and parse failures are converted into a
// failed StrategyResult with a diagnostic, and only the coordinator decides
// what happens next.
type Strategy interface {
	Level() suggestion.FallbackLevel
	Execute(ctx context.Context, req suggestion.SuggestionRequest) suggestion.StrategyResult
}

// Pipeline is the parse, validate, enhance, score sequence shared by the
// provider-backed strategies.
type Pipeline struct {
	parser    *Parser
	validator *Validator
	enhancer  *Enhancer
	scorer    *Scorer
}

// NewPipeline wires the four stages together.
func NewPipeline(parser *Parser, validator *Validator, enhancer *Enhancer, scorer *Scorer) *Pipeline {
	return &Pipeline{parser: parser, validator: validator, enhancer: enhancer, scorer: scorer}
}

// Run processes raw provider text into a scored candidate. Parse recovery
// warnings are folded into the validation result so they reach the caller as
// metadata. A failed parse returns a failed result; it never panics or
// errors past this boundary.
func (p *Pipeline) Run(ctx context.Context, rawText string, req suggestion.SuggestionRequest) suggestion.StrategyResult {
	parsed := p.parser.Parse(rawText)
	if parsed.Outcome == Failed {
		return suggestion.Failed("unparseable provider output: " + parsed.Errors[0])
	}

	enhanced := p.enhancer.Enhance(ctx, *parsed.Candidate)
	validation := p.validator.Validate(ctx, enhanced, req)
	for _, warning := range parsed.Warnings {
		validation.Add(suggestion.ValidationIssue{
			Code:     suggestion.IssueParseRecovered,
			Severity: suggestion.SeverityImportant,
			Message:  warning,
		})
	}
	quality := p.scorer.Score(enhanced, validation, req)

	return suggestion.StrategyResult{
		Candidates: []suggestion.ParsedCandidate{enhanced},
		Succeeded:  true,
		Validation: &validation,
		Quality:    &quality,
	}
}
