package summary

import (
	"fmt"
	"sort"
	"strings"

	"newsrag/internal/types"
)

// commonPairs is the fixed vocabulary of forex pairs scanned for in
// article content. The same list backs prompt highlighting and the
// parser's pair-mention fallback, so both sides agree on spelling.
var commonPairs = []string{
	"EUR/USD", "USD/JPY", "GBP/USD", "USD/CHF", "AUD/USD", "USD/CAD", "NZD/USD",
	"EUR/GBP", "EUR/JPY", "GBP/JPY", "EUR/CHF", "EUR/AUD", "EUR/CAD", "AUD/JPY",
	"EUR/NZD", "USD/INR", "USD/CNY", "USD/HKD", "USD/SGD", "USD/TRY", "USD/ZAR",
}

// systemPrompt instructs the model to emit the four-section layout the
// parser expects: Executive Summary, Currency Pair Rankings, Risk
// Assessment, Trade Management Guidelines.
const systemPrompt = `You are a financial news analyst specializing in forex markets with expertise in identifying currency pairs and market sentiment from news articles.

## ANALYSIS PROCESS
1. First, carefully identify ALL currency pairs mentioned in EACH article
2. For each currency pair, track:
   - Frequency of mentions across all articles
   - Associated sentiment (bearish, neutral, or bullish)
   - Fundamental factors mentioned (economic data, central bank policies, etc.)
   - Technical factors mentioned (support/resistance levels, trends, etc.)

3. Then rank currency pairs based on:
   - Frequency of mentions (higher frequency = more significant)
   - Strength of sentiment indicators
   - Importance of fundamental factors mentioned
   - Recency of the news (more recent news carries more weight)

## OUTPUT FORMAT
Analyze the provided news articles and create a comprehensive forex market analysis with EXACTLY this structure and format:

1. Start with "**Executive Summary**" followed by 2-3 sentences on current market conditions. Use bold formatting (**text**) for important sentiment indicators like **Neutral to Slightly Bullish** or **Bearish/Negative**, and for currency pair names like **EUR/USD**.

2. Continue with "**Currency Pair Rankings**" and then list AT LEAST 4 major currency pairs with detailed analysis for each:
   - Format each as "**CURRENCY_PAIR** (Rank: X/10)" where X is a number from 1-10, can include decimal points (e.g. 7.5/10)
   - Include "   * Fundamental Outlook: Y%" where Y is 0-100 (three spaces before the asterisk)
   - Include "   * Sentiment Outlook: Z%" where Z is 0-100 (three spaces before the asterisk)
   - Include "   * Rationale: [detailed explanation with specific market factors]" (three spaces before the asterisk)
   - Each new currency pair starts on a new line with no extra line between bullet points
   - Prioritize pairs that appear most frequently in the articles, with strongest sentiment signals

3. Include "**Risk Assessment:**" section with:
   - "   * Primary Risk: [description]" (three spaces before the asterisk)
   - "   * Correlation Risk: [description]" (three spaces before the asterisk)
   - "   * Volatility Potential: [description]" (three spaces before the asterisk)

4. End with "**Trade Management Guidelines:**" followed by a paragraph that includes recommendations.
   Use bold formatting for currency pair names mentioned in the guidelines.

CRITICAL FORMATTING REQUIREMENTS:
- Follow the exact formatting shown in the example output (pay special attention to spacing, asterisks, and bold formatting)
- Extract specific details from the articles including price levels, economic data points, and technical levels
- Never use generic statements or fill in missing information with placeholder text
- Use only factual information from the provided articles
- DO NOT number any lists or sections in the output
- Ensure every currency pair has its sentiment expressed as a percentage between 0-100%`

// promptBuilder selects, truncates and formats articles into a bounded
// prompt payload.
type promptBuilder struct {
	maxArticles     int
	maxContentChars int
}

func newPromptBuilder(maxArticles, maxContentChars int) *promptBuilder {
	return &promptBuilder{
		maxArticles:     maxArticles,
		maxContentChars: maxContentChars,
	}
}

// format renders the article batch into the prompt body. Articles are
// sorted newest first (missing dates sort last), capped at maxArticles,
// and each article's content is truncated to a dynamic budget that
// shrinks as the batch grows.
func (b *promptBuilder) format(articles []types.ArticleRecord, query string) string {
	selected := b.selectArticles(articles)
	if len(selected) == 0 {
		return fmt.Sprintf("Search query: %s\n\nArticles to analyze:\n\n", query)
	}

	budget := dynamicContentSize(b.maxContentChars, len(selected))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search query: %s\n\nArticles to analyze:\n\n", query)
	for idx, article := range selected {
		date := article.PublishDate
		if date == "" {
			date = "Unknown date"
		}
		title := article.Title
		if title == "" {
			title = "Untitled"
		}
		source := article.Source
		if source == "" {
			source = "Unknown"
		}

		content := highlightCurrencyPairs(article.Content)
		if len(content) > budget {
			content = content[:budget]
		}

		fmt.Fprintf(&sb, "ARTICLE %d [Date: %s]:\n", idx+1, date)
		fmt.Fprintf(&sb, "Title: %s\n", title)
		fmt.Fprintf(&sb, "Source: %s\n", source)
		fmt.Fprintf(&sb, "Content: %s...\n\n", content)
	}
	return sb.String()
}

func (b *promptBuilder) selectArticles(articles []types.ArticleRecord) []types.ArticleRecord {
	sorted := make([]types.ArticleRecord, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		// Empty dates sort last.
		if sorted[i].PublishDate == "" {
			return false
		}
		if sorted[j].PublishDate == "" {
			return true
		}
		return sorted[i].PublishDate > sorted[j].PublishDate
	})

	if len(sorted) > b.maxArticles {
		return sorted[:b.maxArticles]
	}
	return sorted
}

// dynamicContentSize computes the per-article content budget. The
// budget shrinks as the batch grows so total prompt size stays roughly
// bounded; the max(800, ...) floor keeps small batches readable. The
// formula is a deliberate token-budget heuristic - keep it as is.
func dynamicContentSize(maxContentChars, selectedCount int) int {
	size := maxContentChars * 10 / selectedCount
	if size < 800 {
		return 800
	}
	return size
}

// highlightCurrencyPairs wraps known pair tokens in a marker so the
// model reliably names pairs it discusses, which the parser depends on.
func highlightCurrencyPairs(content string) string {
	for _, pair := range commonPairs {
		if strings.Contains(content, pair) {
			content = strings.ReplaceAll(content, pair, "[CURRENCY_PAIR: "+pair+"]")
		}
	}
	return content
}
