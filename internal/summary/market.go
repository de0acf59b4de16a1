package summary

import (
	"fmt"
	"sort"
	"strings"

	"newsrag/internal/types"
)

// Lexical market-condition analysis. This runs entirely on article
// text, without the LLM, and supplies the marketConditions field plus
// relative-strength pair suggestions used when deeper analysis is
// unavailable.

var majorCurrencies = []string{"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "NZD"}

var (
	strengthPositiveWords = []string{"rise", "gain", "strengthen", "increase", "bullish", "strong", "higher"}
	strengthNegativeWords = []string{"fall", "drop", "weaken", "decrease", "bearish", "weak", "lower"}

	volatilityWords  = []string{"volatile", "uncertainty", "fluctuate", "swing", "erratic"}
	riskWords        = []string{"risk", "concern", "worry", "fear", "caution"}
	opportunityWords = []string{"opportunity", "potential", "bullish", "optimistic", "positive"}
)

// analyzeCurrencyStrength scores each major currency by the net
// sentiment of the articles that mention it, normalized by mention
// count into the -1..1 range.
func analyzeCurrencyStrength(articles []types.ArticleRecord) map[string]float64 {
	scores := make(map[string]float64, len(majorCurrencies))
	mentions := make(map[string]int, len(majorCurrencies))
	for _, c := range majorCurrencies {
		scores[c] = 0
	}

	for _, article := range articles {
		content := strings.ToLower(article.Content)
		posScore := countOccurrences(content, strengthPositiveWords)
		negScore := countOccurrences(content, strengthNegativeWords)

		for _, currency := range majorCurrencies {
			if !strings.Contains(content, strings.ToLower(currency)) {
				continue
			}
			mentions[currency]++
			if posScore > negScore {
				scores[currency]++
			} else if negScore > posScore {
				scores[currency]--
			}
		}
	}

	for _, currency := range majorCurrencies {
		if mentions[currency] > 0 {
			scores[currency] /= float64(mentions[currency])
		}
	}
	return scores
}

// pairSuggestion is a relative-strength recommendation for one
// USD-quoted pair.
type pairSuggestion struct {
	Pair       string `json:"pair"`
	Outlook    string `json:"outlook"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// suggestPairs derives up to five USD-quoted pair recommendations from
// relative currency strength. Differences below 0.1 are noise and
// skipped.
func suggestPairs(strength map[string]float64) []pairSuggestion {
	var pairs []pairSuggestion
	for _, base := range majorCurrencies {
		if base == "USD" {
			continue
		}
		relative := strength[base] - strength["USD"]
		if relative >= -0.1 && relative <= 0.1 {
			continue
		}

		outlook := types.SentimentBullish
		comparison := "stronger"
		if relative < 0 {
			outlook = types.SentimentBearish
			comparison = "weaker"
			relative = -relative
		}
		confidence := int(relative*100) + 50
		if confidence > 100 {
			confidence = 100
		}

		pairs = append(pairs, pairSuggestion{
			Pair:       base + "/USD",
			Outlook:    outlook,
			Confidence: confidence,
			Reason:     fmt.Sprintf("Relative strength analysis shows %s is %s than USD based on recent news.", base, comparison),
		})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Confidence > pairs[j].Confidence
	})
	if len(pairs) > 5 {
		pairs = pairs[:5]
	}
	return pairs
}

// marketConditionsStatement composes a one-sentence read of current
// conditions from the aggregate sentiment score plus lexical theme
// counts across the articles.
func marketConditionsStatement(articles []types.ArticleRecord, sentimentScore int) string {
	volatilityCount := 0
	riskCount := 0
	opportunityCount := 0
	for _, article := range articles {
		content := strings.ToLower(article.Content)
		volatilityCount += countOccurrences(content, volatilityWords)
		riskCount += countOccurrences(content, riskWords)
		opportunityCount += countOccurrences(content, opportunityWords)
	}

	var base string
	switch {
	case sentimentScore >= 70:
		base = "Market conditions show strong bullish sentiment with multiple upside catalysts"
	case sentimentScore >= 55:
		base = "Market conditions reflect measured optimism with selective opportunities"
	case sentimentScore <= 30:
		base = "Market conditions indicate significant bearish pressure and defensive positioning"
	case sentimentScore <= 45:
		base = "Market conditions suggest caution with limited upside potential"
	default:
		base = "Market conditions appear mixed with balanced risk and reward"
	}

	var modifiers []string
	if volatilityCount > 3 {
		modifiers = append(modifiers, "amid elevated volatility")
	}
	if riskCount > opportunityCount*2 {
		modifiers = append(modifiers, "with heightened risk awareness")
	} else if opportunityCount > riskCount*2 {
		modifiers = append(modifiers, "with emerging opportunities")
	}

	if len(modifiers) > 0 {
		return base + " " + strings.Join(modifiers, " ") + "."
	}
	return base + "."
}

func countOccurrences(content string, words []string) int {
	total := 0
	for _, w := range words {
		total += strings.Count(content, w)
	}
	return total
}
