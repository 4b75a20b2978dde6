// Package suggestion implements the orchestration layer of the AI
// meal-suggestion subsystem: parsing, validation, enhancement, quality
// scoring, cost control, fallback strategies and the coordinator that
// sequences them.
package suggestion

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	apperrors "github.com/kruger4712/mealprep/pkg/errors"
)

// ParseOutcome tags how far down the recovery pipeline the parser had to go.
type ParseOutcome string

const (
	StrictOk   ParseOutcome = "strict_ok"
	RepairedOk ParseOutcome = "repaired_ok"
	PartialOk  ParseOutcome = "partial_ok"
	Failed     ParseOutcome = "failed"
)

// ParseResult carries the candidate plus the recovery trail. Warnings are
// recovery steps that succeeded; Errors are only populated on full failure.
type ParseResult struct {
	Candidate *suggestion.ParsedCandidate
	Outcome   ParseOutcome
	Warnings  []string
	Errors    []string
}

// Parser converts raw provider text into a structured candidate, tolerating
// markdown fencing, surrounding prose, trailing commas and unquoted keys.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger.Named("parser")}
}

// candidatePayload is the wire shape providers are instructed to emit. It is
// converted to the domain type at this boundary and nowhere else.
type candidatePayload struct {
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	PrepMinutes  int                       `json:"prep_minutes"`
	CookMinutes  int                       `json:"cook_minutes"`
	CostCents    int                       `json:"cost_cents"`
	Servings     int                       `json:"servings"`
	Ingredients  []ingredientPayload       `json:"ingredients"`
	Instructions []string                  `json:"instructions"`
	Nutrition    *suggestion.NutritionInfo `json:"nutrition"`
	Tags         []string                  `json:"tags"`
	Tips         []string                  `json:"tips"`
}

type ingredientPayload struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Parse runs the fixed-order recovery pipeline: strict parse, structural
// repair, then partial field extraction. Each recovery stage that fires is
// recorded as a warning so the validator can fold it into confidence.
func (p *Parser) Parse(rawText string) ParseResult {
	var result ParseResult

	var payload candidatePayload
	if err := json.Unmarshal([]byte(rawText), &payload); err == nil && payload.Name != "" {
		result.Outcome = StrictOk
		result.Candidate = p.toCandidate(payload, nil)
		return result
	}

	repaired := repairJSON(rawText)
	if repaired != rawText {
		if err := json.Unmarshal([]byte(repaired), &payload); err == nil && payload.Name != "" {
			result.Outcome = RepairedOk
			result.Warnings = append(result.Warnings, "structural repair applied to provider output")
			result.Candidate = p.toCandidate(payload, result.Warnings)
			return result
		}
	}

	partial, extracted := extractFields(rawText)
	if extracted && partial.Name != "" {
		result.Outcome = PartialOk
		result.Warnings = append(result.Warnings, "partial field extraction applied to provider output")
		result.Candidate = p.toCandidate(partial, result.Warnings)
		return result
	}

	result.Outcome = Failed
	result.Errors = append(result.Errors,
		"strict parse failed",
		"structural repair failed",
		"partial field extraction found no usable candidate",
	)
	p.logger.Warn("provider output unparseable",
		zap.Int("raw_length", len(rawText)))
	return result
}

// Err converts a failed result into a typed parse error.
func (r ParseResult) Err() error {
	if r.Outcome != Failed {
		return nil
	}
	return apperrors.NewParseFailed(strings.Join(r.Errors, "; "))
}

// toCandidate converts the wire payload and seeds confidence from field
// completeness, discounted when recovery was needed.
func (p *Parser) toCandidate(payload candidatePayload, warnings []string) *suggestion.ParsedCandidate {
	cand := &suggestion.ParsedCandidate{
		Name:         strings.TrimSpace(payload.Name),
		Description:  strings.TrimSpace(payload.Description),
		PrepMinutes:  payload.PrepMinutes,
		CookMinutes:  payload.CookMinutes,
		CostCents:    payload.CostCents,
		Servings:     payload.Servings,
		Instructions: payload.Instructions,
		Nutrition:    payload.Nutrition,
		Tags:         payload.Tags,
		Tips:         payload.Tips,
	}
	for _, ing := range payload.Ingredients {
		cand.Ingredients = append(cand.Ingredients, suggestion.Ingredient{
			Name:   strings.TrimSpace(ing.Name),
			Amount: ing.Amount,
			Unit:   ing.Unit,
		})
	}
	cand.Confidence = completeness(*cand)
	// Each recovery stage costs confidence.
	cand.Confidence -= 0.1 * float64(len(warnings))
	if cand.Confidence < 0 {
		cand.Confidence = 0
	}
	return cand
}

// completeness scores field presence in [0,1].
func completeness(c suggestion.ParsedCandidate) float64 {
	var present, total float64
	check := func(ok bool) {
		total++
		if ok {
			present++
		}
	}
	check(c.Name != "")
	check(c.PrepMinutes > 0)
	check(c.CookMinutes > 0)
	check(c.CostCents > 0)
	check(c.Servings > 0)
	check(len(c.Ingredients) > 0)
	check(len(c.Instructions) > 0)
	check(c.Nutrition != nil)
	return present / total
}

var (
	fenceRe       = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// repairJSON strips markdown fencing and surrounding prose, then fixes the
// two most common model mistakes: trailing commas and unquoted keys.
func repairJSON(raw string) string {
	text := raw
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	// Trim prose around the outermost object.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	text = trailingComma.ReplaceAllString(text, "$1")
	text = unquotedKey.ReplaceAllString(text, `$1"$2":`)
	return text
}

var (
	nameRe     = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
	prepRe     = regexp.MustCompile(`"prep_minutes"\s*:\s*(\d+)`)
	cookRe     = regexp.MustCompile(`"cook_minutes"\s*:\s*(\d+)`)
	costRe     = regexp.MustCompile(`"cost_cents"\s*:\s*(\d+)`)
	servingsRe = regexp.MustCompile(`"servings"\s*:\s*(\d+)`)
	ingNameRe  = regexp.MustCompile(`"ingredients"[^\]]*?\]`)
	stepsRe    = regexp.MustCompile(`"instructions"\s*:\s*\[([^\]]*)\]`)
	stringRe   = regexp.MustCompile(`"([^"]+)"`)
)

// extractFields pulls individual fields with regexes when structure is
// unrecoverable. Returns whether anything usable was found.
func extractFields(raw string) (candidatePayload, bool) {
	repaired := repairJSON(raw)
	var payload candidatePayload
	var found bool

	if m := nameRe.FindStringSubmatch(repaired); m != nil {
		payload.Name = m[1]
		found = true
	}
	if m := prepRe.FindStringSubmatch(repaired); m != nil {
		payload.PrepMinutes, _ = strconv.Atoi(m[1])
	}
	if m := cookRe.FindStringSubmatch(repaired); m != nil {
		payload.CookMinutes, _ = strconv.Atoi(m[1])
	}
	if m := costRe.FindStringSubmatch(repaired); m != nil {
		payload.CostCents, _ = strconv.Atoi(m[1])
	}
	if m := servingsRe.FindStringSubmatch(repaired); m != nil {
		payload.Servings, _ = strconv.Atoi(m[1])
	}

	if block := ingNameRe.FindString(repaired); block != "" {
		names := nameRe.FindAllStringSubmatch(block, -1)
		for _, m := range names {
			if m[1] == payload.Name {
				continue
			}
			payload.Ingredients = append(payload.Ingredients, ingredientPayload{Name: m[1], Amount: 1, Unit: "unit"})
		}
	}
	if m := stepsRe.FindStringSubmatch(repaired); m != nil {
		for _, s := range stringRe.FindAllStringSubmatch(m[1], -1) {
			payload.Instructions = append(payload.Instructions, s[1])
		}
	}
	return payload, found
}
