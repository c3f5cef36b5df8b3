// Package parser provides JobParser implementations.
package parser

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/target/jobmatch/internal/core"
	"github.com/target/jobmatch/internal/domain/model"
)

var _ core.JobParser = (*Keyword)(nil)

const maxTitleRunes = 100

// keywordRules is checked in order; the first type with a matching stem wins,
// so specific trades sit before the general handyman bucket.
var keywordRules = []struct {
	jobType model.JobType
	stems   []string
}{
	{model.JobTypeSnowRemoval, []string{"snow", "plow", "shovel", "ice", "icy", "salt", "slush", "blizzard"}},
	{model.JobTypeLawnCare, []string{
		"lawn", "mow", "grass", "leaf", "leaves", "rake", "raking", "hedge", "weed", "yard", "landscap", "mulch", "prun",
	}},
	{model.JobTypePlumbing, []string{
		"plumb", "pipe", "drain", "faucet", "leak", "toilet", "sink", "clog", "sewer", "shower", "water heater",
	}},
	{model.JobTypeElectrical, []string{
		"electric", "wiring", "wire", "outlet", "breaker", "fixture", "switch", "socket", "fuse",
	}},
	{model.JobTypeCarpentry, []string{"carpent", "door", "fence", "deck", "gate", "cabinet", "shelf", "shelv", "trim", "stair"}},
	{model.JobTypeHandyman, []string{
		"handyman", "repair", "fix", "assembl", "furniture", "mount", "patch", "drywall", "install", "caulk", "paint",
	}},
}

var (
	urgentStems = []string{"urgent", "asap", "emergency", "immediately", "flood"}
	highStems   = []string{"soon", "today", "tonight", "quickly", "broken"}

	clauseSplitter = regexp.MustCompile(`(?i)[.;!?\n]+|,\s*(?:and\s+)?|\s+(?:and|also|plus|then)\s+`)
)

// Keyword is a deterministic rule-based parser. It splits the request into
// clauses, classifies each by keyword stems and merges neighbouring clauses
// of the same type into one job.
type Keyword struct{}

// NewKeyword creates a Keyword parser.
func NewKeyword() *Keyword { return &Keyword{} }

// Parse implements core.JobParser. Clauses that match no type are folded into
// the preceding job; text with no recognised clause yields a single "other" job.
func (k *Keyword) Parse(ctx context.Context, text string) ([]model.ParsedJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var jobs []model.ParsedJob
	var pending []string
	for _, clause := range splitClauses(text) {
		jt, ok := classify(clause)
		if !ok {
			if len(jobs) == 0 {
				pending = append(pending, clause)
				continue
			}
			last := &jobs[len(jobs)-1]
			last.Description = joinSentences(last.Description, clause)
			continue
		}
		if len(jobs) > 0 && jobs[len(jobs)-1].Type == jt {
			last := &jobs[len(jobs)-1]
			last.Description = joinSentences(last.Description, clause)
			continue
		}
		description := clause
		if len(pending) > 0 {
			description = joinSentences(strings.Join(pending, ". "), clause)
			pending = nil
		}
		jobs = append(jobs, model.ParsedJob{
			Type:        jt,
			Title:       title(clause),
			Description: description,
		})
	}

	if len(jobs) == 0 {
		return []model.ParsedJob{{
			Type:        model.JobTypeOther,
			Title:       title(text),
			Description: text,
			Priority:    priority(text),
		}}, nil
	}

	p := priority(text)
	for i := range jobs {
		jobs[i].Priority = p
	}
	return jobs, nil
}

func splitClauses(text string) []string {
	parts := clauseSplitter.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasStem(lower string, tokens []string, stems []string) bool {
	for _, stem := range stems {
		if strings.Contains(stem, " ") {
			if strings.Contains(lower, stem) {
				return true
			}
			continue
		}
		for _, w := range tokens {
			if strings.HasPrefix(w, stem) {
				return true
			}
		}
	}
	return false
}

func classify(clause string) (model.JobType, bool) {
	lower := strings.ToLower(clause)
	tokens := words(clause)
	for _, rule := range keywordRules {
		if hasStem(lower, tokens, rule.stems) {
			return rule.jobType, true
		}
	}
	return "", false
}

func priority(text string) model.JobPriority {
	lower := strings.ToLower(text)
	tokens := words(text)
	switch {
	case hasStem(lower, tokens, urgentStems):
		return model.JobPriorityUrgent
	case hasStem(lower, tokens, highStems):
		return model.JobPriorityHigh
	default:
		return model.JobPriorityMedium
	}
}

func title(clause string) string {
	clause = strings.Join(strings.Fields(clause), " ")
	if utf8.RuneCountInString(clause) > maxTitleRunes {
		clause = strings.TrimSpace(string([]rune(clause)[:maxTitleRunes]))
	}
	r, size := utf8.DecodeRuneInString(clause)
	if r == utf8.RuneError {
		return clause
	}
	return string(unicode.ToUpper(r)) + clause[size:]
}

func joinSentences(a, b string) string {
	a = strings.TrimRight(strings.TrimSpace(a), ".")
	if a == "" {
		return b
	}
	return a + ". " + b
}
