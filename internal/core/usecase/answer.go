package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edurag/edurag/internal/core/domain"
	"github.com/edurag/edurag/internal/core/ports"
)

// Apology answers returned when generation fails. Strategy execution
// never surfaces generation errors to the caller.
const (
	apologyDocs    = "I apologize, but I encountered an error while processing your documents. Please try again."
	apologyGeneral = "I apologize, but I encountered an error while generating an answer. Please try again."
)

// specificMarkers flag questions that refer to the user's own uploads;
// matching is a case-insensitive substring check.
var specificMarkers = []string{"document", "file", "uploaded", "this", "these", "according to"}

// Engine executes the individual answer strategies over a set of
// already retrieved documents.
type Engine struct {
	generator   ports.TextGenerator
	temperature float64
	maxTokens   int
	minScore    float64
	logger      *slog.Logger
}

func NewEngine(generator ports.TextGenerator, temperature float64, maxTokens int, minScore float64, logger *slog.Logger) *Engine {
	return &Engine{
		generator:   generator,
		temperature: temperature,
		maxTokens:   maxTokens,
		minScore:    minScore,
		logger:      logger,
	}
}

// Answer resolves the strategy (including auto selection) and runs it
// over the retrieval results for this question.
func (e *Engine) Answer(ctx context.Context, question string, strategy domain.Strategy, docs []domain.RetrievedDocument) domain.StrategyResult {
	start := time.Now()

	var result domain.StrategyResult
	switch strategy {
	case domain.StrategyDocsOnly:
		result = e.answerFromDocs(ctx, question, docs)
	case domain.StrategyGeneralOnly:
		result = e.answerGeneral(ctx, question)
	case domain.StrategyHybrid:
		result = e.answerHybrid(ctx, question, docs)
	default:
		result = e.answerAuto(ctx, question, docs)
	}

	result.ProcessingTime = time.Since(start)
	return result
}

// answerAuto picks a strategy from the retrieval picture: an empty
// retrieval means general knowledge, a question that names the uploads
// sticks to them, everything else probes the documents first and widens
// to hybrid only when they cover the question poorly.
func (e *Engine) answerAuto(ctx context.Context, question string, docs []domain.RetrievedDocument) domain.StrategyResult {
	if len(docs) == 0 {
		return e.answerGeneral(ctx, question)
	}
	if isSpecificQuestion(question) {
		return e.answerFromDocs(ctx, question, docs)
	}

	probe := e.answerFromDocs(ctx, question, docs)
	if probe.Relevance == domain.RelevanceLow {
		return e.answerHybrid(ctx, question, docs)
	}
	return probe
}

func (e *Engine) answerFromDocs(ctx context.Context, question string, docs []domain.RetrievedDocument) domain.StrategyResult {
	relevant := e.relevantDocs(docs)
	level := relevanceLevel(len(relevant))
	if len(relevant) == 0 {
		return domain.StrategyResult{
			Answered:     false,
			SourceType:   domain.SourceDocuments,
			Relevance:    level,
			StrategyUsed: domain.StrategyDocsOnly,
		}
	}

	prompt := fmt.Sprintf(`You are an educational assistant helping a student learn from their study materials.

Use ONLY the following excerpts from the student's uploaded documents to answer the question. If the excerpts do not contain the answer, say so.

%s

Question: %s

Answer clearly and concisely, citing which document the information comes from.`, buildContext(relevant), question)

	answer, err := e.generator.Generate(ctx, prompt, e.temperature, e.maxTokens)
	if err != nil {
		e.logger.Error("document answer generation failed", "error", err)
		return domain.StrategyResult{
			Answer:       apologyDocs,
			Answered:     true,
			SourceType:   domain.SourceError,
			Relevance:    level,
			StrategyUsed: domain.StrategyDocsOnly,
		}
	}
	return domain.StrategyResult{
		Answer:       answer,
		Answered:     true,
		SourceType:   domain.SourceDocuments,
		Relevance:    level,
		SourcesUsed:  len(relevant),
		StrategyUsed: domain.StrategyDocsOnly,
	}
}

func (e *Engine) answerGeneral(ctx context.Context, question string) domain.StrategyResult {
	prompt := fmt.Sprintf(`You are an educational assistant helping a student learn.

Answer the following question from your general knowledge, clearly and at a level appropriate for studying.

Question: %s`, question)

	answer, err := e.generator.Generate(ctx, prompt, e.temperature, e.maxTokens)
	if err != nil {
		e.logger.Error("general answer generation failed", "error", err)
		return domain.StrategyResult{
			Answer:       apologyGeneral,
			Answered:     true,
			SourceType:   domain.SourceError,
			StrategyUsed: domain.StrategyGeneralOnly,
		}
	}
	return domain.StrategyResult{
		Answer:       answer,
		Answered:     true,
		SourceType:   domain.SourceGeneral,
		StrategyUsed: domain.StrategyGeneralOnly,
	}
}

// answerHybrid blends the top document excerpts with a general answer.
// It always makes exactly two generation calls.
func (e *Engine) answerHybrid(ctx context.Context, question string, docs []domain.RetrievedDocument) domain.StrategyResult {
	general := e.answerGeneral(ctx, question)
	if general.SourceType == domain.SourceError {
		general.StrategyUsed = domain.StrategyHybrid
		return general
	}

	top := docs
	if len(top) > 3 {
		top = top[:3]
	}
	generalAnswer := truncateRunes(general.Answer, 500)

	prompt := fmt.Sprintf(`You are an educational assistant helping a student learn from their study materials.

Combine the student's uploaded documents with general knowledge to answer the question. Prefer the documents where they apply and fill gaps from general knowledge, noting which is which.

Excerpts from uploaded documents:
%s

General knowledge summary:
%s

Question: %s`, buildContext(top), generalAnswer, question)

	answer, err := e.generator.Generate(ctx, prompt, e.temperature, e.maxTokens)
	if err != nil {
		e.logger.Error("hybrid answer generation failed", "error", err)
		return domain.StrategyResult{
			Answer:       apologyGeneral,
			Answered:     true,
			SourceType:   domain.SourceError,
			StrategyUsed: domain.StrategyHybrid,
		}
	}
	return domain.StrategyResult{
		Answer:       answer,
		Answered:     true,
		SourceType:   domain.SourceHybrid,
		Relevance:    relevanceLevel(len(e.relevantDocs(docs))),
		SourcesUsed:  len(top),
		StrategyUsed: domain.StrategyHybrid,
	}
}

func (e *Engine) relevantDocs(docs []domain.RetrievedDocument) []domain.RetrievedDocument {
	var relevant []domain.RetrievedDocument
	for _, d := range docs {
		if d.Score >= e.minScore {
			relevant = append(relevant, d)
		}
	}
	return relevant
}

func relevanceLevel(qualifying int) domain.Relevance {
	switch {
	case qualifying >= 2:
		return domain.RelevanceHigh
	case qualifying == 1:
		return domain.RelevanceMedium
	default:
		return domain.RelevanceLow
	}
}

func buildContext(docs []domain.RetrievedDocument) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("Source: %s\nContent: %s", d.Source, d.Text))
	}
	return strings.Join(parts, "\n---\n")
}

// truncateRunes cuts s to at most limit characters without splitting a
// multi-byte rune.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func isSpecificQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, marker := range specificMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}
