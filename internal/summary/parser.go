package summary

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"newsrag/internal/types"
)

// The parser turns a free-text LLM completion into a fully-populated
// SummaryResult. The model is asked for a four-section layout but is
// not trusted to follow it: every section is extracted through an
// ordered chain of patterns from strictest (exact bold-markdown
// heading) to most lenient (bare heading word, case-insensitive), and
// anything still missing afterwards is synthesized. Parsing never
// fails; at worst content fidelity degrades.

// Section extractor chains. Order matters: lenient patterns can
// mis-capture if tried before strict ones.
var (
	summaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\*\*Executive Summary\*\*:?\s*(.*?)\s*(?:\*\*Currency Pair Rankings|\*\*Risk Assessment|$)`),
		regexp.MustCompile(`(?is)executive summary:?\s*(.*?)\s*(?:currency pair rankings|risk assessment|$)`),
	}
	rankingsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\*\*Currency Pair Rankings\*\*:?\s*(.*?)\s*(?:\*\*Risk Assessment|$)`),
		regexp.MustCompile(`(?is)currency pair rankings:?\s*(.*?)\s*(?:risk assessment|$)`),
	}
	riskPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\*\*Risk Assessment:?\*\*:?\s*(.*?)\s*(?:\*\*Trade Management|$)`),
		regexp.MustCompile(`(?is)risk assessment:?\s*(.*?)\s*(?:trade management|$)`),
	}
	guidelinesPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\*\*Trade Management Guidelines:?\*\*:?\s*(.*)$`),
		regexp.MustCompile(`(?is)trade management guidelines:?\s*(.*)$`),
	}

	// Pair block headers, strictest first. RE2 has no lookahead, so
	// blocks are sliced between consecutive header matches instead.
	pairHeaderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\*\*([A-Z]{3}/[A-Z]{3})\*\*\s*\(Rank:\s*(\d+(?:\.\d+)?)\s*/\s*(\d+)\)`),
		regexp.MustCompile(`\*{0,2}([A-Z]{3}/[A-Z]{3})\*{0,2}\s*\(Rank:\s*(\d+(?:\.\d+)?)(?:\s*/\s*(\d+))?\)`),
		regexp.MustCompile(`([A-Z]{3}/[A-Z]{3})\s*[\(\[]?\s*Rank:?\s*(\d+(?:\.\d+)?)(?:\s*/\s*(\d+))?`),
	}

	fundamentalRe = regexp.MustCompile(`(?i)Fundamental Outlook:\s*(\d+)\s*%`)
	sentimentRe   = regexp.MustCompile(`(?i)Sentiment Outlook:\s*(\d+)\s*%`)
	rationaleRe   = regexp.MustCompile(`(?s)Rationale:\s*(.*?)(?:\n\s*\*|\n\n|$)`)
	outlookLineRe = regexp.MustCompile(`(?i)^\s*\*?\s*(Fundamental|Sentiment) Outlook:.*$`)

	primaryRiskPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)Primary Risk:\s*(.*?)(?:\n\s*\*|\n\s*Correlation Risk:|\n\n|$)`),
		regexp.MustCompile(`(?is)primary risk[:\-]\s*(.*?)(?:\n|$)`),
	}
	correlationRiskPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)Correlation Risk:\s*(.*?)(?:\n\s*\*|\n\s*Volatility Potential:|\n\n|$)`),
		regexp.MustCompile(`(?is)correlation risk[:\-]\s*(.*?)(?:\n|$)`),
	}
	volatilityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)Volatility Potential:\s*(.*?)(?:\n\s*\*|\n\n|$)`),
		regexp.MustCompile(`(?is)volatility potential[:\-]\s*(.*?)(?:\n|$)`),
	}

	bulletPrefixRe = regexp.MustCompile(`^\s*[\*\-\x{2022}]+\s*`)
	boldMarkRe     = regexp.MustCompile(`\*\*`)
	sentenceEndRe  = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

	bullishCuesRe = regexp.MustCompile(`(?i)bullish|positive|uptrend|gains`)
	bearishCuesRe = regexp.MustCompile(`(?i)bearish|negative|downtrend|losses`)
)

// parseStructuredResponse extracts a complete SummaryResult from raw
// completion text. The returned result always satisfies the non-empty
// invariants; the caller stamps timestamp, query, article count and the
// retained raw text.
func parseStructuredResponse(text string) (result *types.SummaryResult) {
	defer func() {
		// Parsing must never propagate a failure. Any panic during
		// extraction degrades to a fallback built from the raw text.
		if r := recover(); r != nil {
			result = fallbackResult(text)
		}
	}()

	result = &types.SummaryResult{
		RiskAssessment: types.RiskAssessment{},
		Sentiment:      types.SentimentVerdict{Overall: types.SentimentNeutral, Score: 50},
		ImpactLevel:    types.ImpactMedium,
	}

	// Executive summary, falling back to the first paragraph.
	if s, ok := extractSection(text, summaryPatterns); ok {
		result.Summary = s
	} else {
		result.Summary = firstParagraph(text)
	}

	// Currency pair rankings with structured extraction, then the
	// mention-scan fallback, then a single default entry.
	structuredPairs := 0
	if section, ok := extractSection(text, rankingsPatterns); ok {
		result.CurrencyPairRankings = extractPairRankings(section)
		structuredPairs = len(result.CurrencyPairRankings)
	}
	if len(result.CurrencyPairRankings) == 0 {
		result.CurrencyPairRankings = mentionedPairFallback(text)
	}
	if len(result.CurrencyPairRankings) == 0 {
		result.CurrencyPairRankings = []types.CurrencyPairRanking{defaultPairRanking()}
	}

	// Risk assessment with per-field fallback chains.
	riskSection := text
	if section, ok := extractSection(text, riskPatterns); ok {
		riskSection = section
	}
	result.RiskAssessment = types.RiskAssessment{
		PrimaryRisk:         extractField(riskSection, primaryRiskPatterns),
		CorrelationRisk:     extractField(riskSection, correlationRiskPatterns),
		VolatilityPotential: extractField(riskSection, volatilityPatterns),
	}

	// Trade management guidelines.
	if section, ok := extractSection(text, guidelinesPatterns); ok {
		result.TradeManagementGuidelines = splitGuidelines(section)
	}

	// Sentiment: mean of structured pair outlooks, else lexical cues
	// in the summary, else neutral.
	score := 50
	switch {
	case structuredPairs > 0:
		total := 0
		for _, p := range result.CurrencyPairRankings[:structuredPairs] {
			total += p.SentimentOutlook
		}
		score = total / structuredPairs
	case bullishCuesRe.MatchString(result.Summary):
		score = 75
	case bearishCuesRe.MatchString(result.Summary):
		score = 25
	}
	result.Sentiment = types.SentimentVerdict{
		Overall: types.CategorizeSentiment(score),
		Score:   score,
	}

	result.ImpactLevel = impactLevel(result.Summary, score)

	// Key points: up to the first three substantial sentences.
	result.KeyPoints = keyPointsFrom(result.Summary)

	normalize(result, text)
	return result
}

// extractSection applies a strictness-descending pattern chain and
// returns the first capture that matches.
func extractSection(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if s := strings.TrimSpace(m[1]); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func extractField(section string, patterns []*regexp.Regexp) string {
	s, _ := extractSection(section, patterns)
	return strings.TrimSpace(boldMarkRe.ReplaceAllString(s, ""))
}

// firstParagraph returns the text up to the first blank line, or the
// first 500 characters when no break exists.
func firstParagraph(text string) string {
	trimmed := strings.TrimSpace(text)
	if idx := strings.Index(trimmed, "\n\n"); idx > 0 {
		return strings.TrimSpace(trimmed[:idx])
	}
	if len(trimmed) > 500 {
		return trimmed[:500]
	}
	return trimmed
}

// extractPairRankings finds per-pair blocks in the rankings section.
// The first header pattern that matches anything wins; each block spans
// from its header to the next header or the end of the section.
func extractPairRankings(section string) []types.CurrencyPairRanking {
	var matches [][]int
	var re *regexp.Regexp
	for _, candidate := range pairHeaderPatterns {
		if found := candidate.FindAllStringSubmatchIndex(section, -1); len(found) > 0 {
			matches, re = found, candidate
			break
		}
	}
	if re == nil {
		return nil
	}

	rankings := make([]types.CurrencyPairRanking, 0, len(matches))
	for i, m := range matches {
		pair := section[m[2]:m[3]]
		rank, _ := strconv.ParseFloat(section[m[4]:m[5]], 64)
		maxRank := 10
		if m[6] >= 0 {
			if n, err := strconv.Atoi(section[m[6]:m[7]]); err == nil && n > 0 {
				maxRank = n
			}
		}

		blockEnd := len(section)
		if i+1 < len(matches) {
			blockEnd = matches[i+1][0]
		}
		block := section[m[1]:blockEnd]

		rankings = append(rankings, types.CurrencyPairRanking{
			Pair:               pair,
			Rank:               rank,
			MaxRank:            maxRank,
			FundamentalOutlook: extractPercent(block, fundamentalRe),
			SentimentOutlook:   extractPercent(block, sentimentRe),
			Rationale:          extractRationale(block, pair),
		})
	}
	return rankings
}

// extractPercent pulls an outlook percentage, defaulting to 50.
func extractPercent(block string, re *regexp.Regexp) int {
	if m := re.FindStringSubmatch(block); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 50
}

// extractRationale finds the rationale sub-field, falling back to the
// block text stripped of the outlook lines, then to a synthesized line.
func extractRationale(block, pair string) string {
	if m := rationaleRe.FindStringSubmatch(block); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}

	var kept []string
	for _, line := range strings.Split(block, "\n") {
		if outlookLineRe.MatchString(line) {
			continue
		}
		line = strings.TrimSpace(bulletPrefixRe.ReplaceAllString(line, ""))
		if line != "" {
			kept = append(kept, line)
		}
	}
	if s := strings.TrimSpace(strings.Join(kept, " ")); s != "" {
		return s
	}
	return fmt.Sprintf("Analysis of %s based on recent market coverage.", pair)
}

// mentionedPairFallback scans the entire completion for literal pair
// mentions and synthesizes placeholder rankings for up to three.
func mentionedPairFallback(text string) []types.CurrencyPairRanking {
	var rankings []types.CurrencyPairRanking
	for _, pair := range commonPairs {
		if !strings.Contains(text, pair) {
			continue
		}
		rankings = append(rankings, types.CurrencyPairRanking{
			Pair:               pair,
			Rank:               5.0,
			MaxRank:            10,
			FundamentalOutlook: 50,
			SentimentOutlook:   50,
			Rationale:          fmt.Sprintf("Mentioned in analysis of %s market activity.", pair),
		})
		if len(rankings) == 3 {
			break
		}
	}
	return rankings
}

func defaultPairRanking() types.CurrencyPairRanking {
	return types.CurrencyPairRanking{
		Pair:               "EUR/USD",
		Rank:               5.0,
		MaxRank:            10,
		FundamentalOutlook: 50,
		SentimentOutlook:   50,
		Rationale:          "Default major pair; no specific pairs were identified in the analysis.",
	}
}

// splitGuidelines breaks the trailing section into trimmed non-empty
// entries by line breaks and bullet markers.
func splitGuidelines(section string) []string {
	var guidelines []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(bulletPrefixRe.ReplaceAllString(line, ""))
		if line != "" {
			guidelines = append(guidelines, line)
		}
	}
	return guidelines
}

// impactLevel mixes a lexical scan of the summary with the numeric
// sentiment score. The two signals are deliberately conflated; extreme
// scores and the word "high" both mean a market worth watching.
func impactLevel(summary string, score int) string {
	lower := strings.ToLower(summary)
	switch {
	case strings.Contains(lower, "high") || score >= 80 || score <= 20:
		return types.ImpactHigh
	case strings.Contains(lower, "low") || (score >= 40 && score <= 60):
		return types.ImpactLow
	default:
		return types.ImpactMedium
	}
}

// keyPointsFrom keeps up to the first three sentences longer than 10
// characters.
func keyPointsFrom(summary string) []string {
	var points []string
	for _, sentence := range splitSentences(summary) {
		if len(sentence) > 10 {
			points = append(points, sentence)
		}
		if len(points) == 3 {
			break
		}
	}
	return points
}

// splitSentences splits on sentence-ending punctuation, keeping the
// punctuation with each sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[last:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// normalize is the mandatory closing pass: every required field must be
// non-empty and every numeric field within range before the result
// leaves the parser.
func normalize(result *types.SummaryResult, raw string) {
	if strings.TrimSpace(result.Summary) == "" {
		if p := firstParagraph(raw); p != "" {
			result.Summary = p
		} else {
			result.Summary = "Unable to generate market analysis from the available text."
		}
	}
	if len(result.KeyPoints) == 0 {
		result.KeyPoints = []string{"Market analysis based on latest financial news"}
	}
	if len(result.CurrencyPairRankings) == 0 {
		result.CurrencyPairRankings = []types.CurrencyPairRanking{defaultPairRanking()}
	}
	for i := range result.CurrencyPairRankings {
		p := &result.CurrencyPairRankings[i]
		if p.MaxRank <= 0 {
			p.MaxRank = 10
		}
		p.Rank = clampFloat(p.Rank, 0, float64(p.MaxRank))
		p.FundamentalOutlook = clampInt(p.FundamentalOutlook, 0, 100)
		p.SentimentOutlook = clampInt(p.SentimentOutlook, 0, 100)
		if strings.TrimSpace(p.Rationale) == "" {
			p.Rationale = fmt.Sprintf("Analysis of %s based on recent market coverage.", p.Pair)
		}
	}
	if strings.TrimSpace(result.RiskAssessment.PrimaryRisk) == "" {
		result.RiskAssessment.PrimaryRisk = "Primary risk not identified; refer to the full analysis text."
	}
	if strings.TrimSpace(result.RiskAssessment.CorrelationRisk) == "" {
		result.RiskAssessment.CorrelationRisk = "Correlation risk not identified; refer to the full analysis text."
	}
	if strings.TrimSpace(result.RiskAssessment.VolatilityPotential) == "" {
		result.RiskAssessment.VolatilityPotential = "Volatility potential not identified; refer to the full analysis text."
	}
	if len(result.TradeManagementGuidelines) == 0 {
		result.TradeManagementGuidelines = []string{"Review the full analysis text for trade management guidance."}
	}
	result.Sentiment.Score = clampInt(result.Sentiment.Score, 0, 100)
	if result.Sentiment.Overall == "" {
		result.Sentiment.Overall = types.CategorizeSentiment(result.Sentiment.Score)
	}
	if result.ImpactLevel == "" {
		result.ImpactLevel = types.ImpactMedium
	}
}

// fallbackResult builds a complete result purely from raw text when
// structured parsing blew up entirely.
func fallbackResult(text string) *types.SummaryResult {
	summary := firstParagraph(text)
	if summary == "" {
		summary = "Unable to generate market analysis from the available text."
	}

	pairs := mentionedPairFallback(text)
	if len(pairs) == 0 {
		pairs = []types.CurrencyPairRanking{defaultPairRanking()}
	}

	return &types.SummaryResult{
		Summary:              summary,
		KeyPoints:            []string{"Error parsing structured response"},
		CurrencyPairRankings: pairs,
		RiskAssessment: types.RiskAssessment{
			PrimaryRisk:         "Primary risk not identified; refer to the full analysis text.",
			CorrelationRisk:     "Correlation risk not identified; refer to the full analysis text.",
			VolatilityPotential: "Volatility potential not identified; refer to the full analysis text.",
		},
		TradeManagementGuidelines: []string{"Review the full analysis text for trade management guidance."},
		Sentiment:                 types.SentimentVerdict{Overall: types.SentimentNeutral, Score: 50},
		ImpactLevel:               types.ImpactMedium,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
