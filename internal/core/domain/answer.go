package domain

import "time"

// Strategy selects how a question is answered.
type Strategy string

const (
	StrategyAuto        Strategy = "auto"
	StrategyDocsOnly    Strategy = "docs_only"
	StrategyGeneralOnly Strategy = "general_only"
	StrategyHybrid      Strategy = "hybrid"
)

// Relevance classifies how well retrieved documents cover a question,
// derived from the count of documents meeting the score threshold.
type Relevance string

const (
	RelevanceLow    Relevance = "low"
	RelevanceMedium Relevance = "medium"
	RelevanceHigh   Relevance = "high"
)

// Source type tags attached to strategy results.
const (
	SourceDocuments = "documents"
	SourceGeneral   = "general_knowledge"
	SourceHybrid    = "hybrid"
	SourceError     = "error"
)

// StrategyResult is the structured outcome of one answer-strategy
// execution. Answered is false only when the docs_only path found no
// sufficiently relevant document; generation failures still produce an
// answer string (a user-facing apology), never an error.
type StrategyResult struct {
	Answer         string        `json:"answer"`
	Answered       bool          `json:"-"`
	SourceType     string        `json:"source_type"`
	Relevance      Relevance     `json:"relevance,omitempty"`
	SourcesUsed    int           `json:"sources_used"`
	StrategyUsed   Strategy      `json:"strategy_used"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	ProcessingTime time.Duration `json:"-"`
}

// FromUploadedDocs reports whether the answer drew on uploaded documents.
func (r StrategyResult) FromUploadedDocs() bool {
	return r.SourceType != SourceGeneral
}
