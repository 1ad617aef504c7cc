// Package categorize suggests a category label for free-text transaction
// descriptions. Two implementations share one interface: a live Gemini
// adapter when an API key is configured, and a deterministic local keyword
// matcher otherwise. Callers never branch on configuration themselves.
package categorize

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultCategory is returned when nothing matches.
const DefaultCategory = "Other"

type Suggester interface {
	SuggestCategory(ctx context.Context, description string) (string, error)
}

// keywordTable maps an exact lowercase substring to a category. First match
// wins in the listed order.
var keywordTable = []struct {
	keyword  string
	category string
}{
	{"salary", "Income"},
	{"payroll", "Income"},
	{"dividend", "Investments"},
	{"uber", "Transport"},
	{"taxi", "Transport"},
	{"fuel", "Transport"},
	{"gas station", "Transport"},
	{"parking", "Transport"},
	{"ifood", "Food"},
	{"restaurant", "Food"},
	{"grocery", "Food"},
	{"supermarket", "Food"},
	{"coffee", "Food"},
	{"rent", "Housing"},
	{"mortgage", "Housing"},
	{"electric", "Utilities"},
	{"water bill", "Utilities"},
	{"internet", "Utilities"},
	{"phone", "Utilities"},
	{"netflix", "Entertainment"},
	{"spotify", "Entertainment"},
	{"cinema", "Entertainment"},
	{"pharmacy", "Health"},
	{"hospital", "Health"},
	{"doctor", "Health"},
	{"gym", "Health"},
	{"school", "Education"},
	{"course", "Education"},
	{"tuition", "Education"},
}

// Keyword is the deterministic fallback classifier: an exact substring
// match against the static table, DefaultCategory when nothing matches.
type Keyword struct{}

func (Keyword) SuggestCategory(_ context.Context, description string) (string, error) {
	desc := strings.ToLower(description)
	for _, entry := range keywordTable {
		if strings.Contains(desc, entry.keyword) {
			return entry.category, nil
		}
	}
	return DefaultCategory, nil
}

// FromEnv selects the live adapter when apiKey is set and falls back to the
// keyword matcher otherwise, or when the live client cannot be constructed.
func FromEnv(ctx context.Context, apiKey string, log *logrus.Logger) Suggester {
	if apiKey == "" {
		log.Info("no suggestion provider configured, using keyword categorizer")
		return Keyword{}
	}
	g, err := NewGemini(ctx, apiKey, log)
	if err != nil {
		log.Warnf("suggestion provider unavailable, using keyword categorizer: %v", err)
		return Keyword{}
	}
	return g
}
