package types

// ArticleRecord is one retrieved news article with its similarity score.
// Records are produced by the vector store and treated as read-only.
type ArticleRecord struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	Author      string  `json:"author,omitempty"`
	PublishDate string  `json:"publishDate"`
	Content     string  `json:"content"`
}

// CurrencyPairRanking is one ranked forex pair extracted from the LLM
// analysis. Rank is 0..MaxRank; the outlook fields are 0..100.
type CurrencyPairRanking struct {
	Pair               string  `json:"pair"`
	Rank               float64 `json:"rank"`
	MaxRank            int     `json:"maxRank"`
	FundamentalOutlook int     `json:"fundamentalOutlook"`
	SentimentOutlook   int     `json:"sentimentOutlook"`
	Rationale          string  `json:"rationale"`
	Mentions           int     `json:"mentions,omitempty"`
}

// RiskAssessment holds the three risk dimensions of a summary.
type RiskAssessment struct {
	PrimaryRisk         string `json:"primaryRisk"`
	CorrelationRisk     string `json:"correlationRisk"`
	VolatilityPotential string `json:"volatilityPotential"`
}

// Sentiment categories.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

// Impact levels.
const (
	ImpactLow    = "LOW"
	ImpactMedium = "MEDIUM"
	ImpactHigh   = "HIGH"
)

// SentimentVerdict is the aggregate market tone: score 0..100,
// >=70 bullish, <=30 bearish, neutral otherwise.
type SentimentVerdict struct {
	Overall string `json:"overall"`
	Score   int    `json:"score"`
}

// CategorizeSentiment maps a 0..100 score onto a sentiment category.
func CategorizeSentiment(score int) string {
	switch {
	case score >= 70:
		return SentimentBullish
	case score <= 30:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// ProcessingDetails reports chunked-generation bookkeeping when the
// article set was split across multiple LLM calls.
type ProcessingDetails struct {
	ChunksProcessed int `json:"chunksProcessed"`
	TotalChunks     int `json:"totalChunks"`
	TotalArticles   int `json:"totalArticles"`
	ChunkErrorCount int `json:"chunkErrorCount"`
}

// SummaryResult is the full structured summary returned to callers.
// Every field is populated: missing sections are synthesized during
// parsing so the shape is always complete.
type SummaryResult struct {
	Summary                   string                `json:"summary"`
	KeyPoints                 []string              `json:"keyPoints"`
	CurrencyPairRankings      []CurrencyPairRanking `json:"currencyPairRankings"`
	RiskAssessment            RiskAssessment        `json:"riskAssessment"`
	TradeManagementGuidelines []string              `json:"tradeManagementGuidelines"`
	Sentiment                 SentimentVerdict      `json:"sentiment"`
	ImpactLevel               string                `json:"impactLevel"`
	MarketConditions          string                `json:"marketConditions,omitempty"`
	Timestamp                 string                `json:"timestamp"`
	Query                     string                `json:"query,omitempty"`
	ArticleCount              int                   `json:"articleCount"`
	FormattedText             string                `json:"formatted_text"`
	ProcessingDetails         *ProcessingDetails    `json:"processingDetails,omitempty"`
}

// CacheStats reports summary-cache effectiveness.
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}
