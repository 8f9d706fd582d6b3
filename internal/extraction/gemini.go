package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/dvloznov/spendscan/internal/logger"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

const (
	// PagesPerChunk is the page window sent per request for long statements.
	PagesPerChunk = 4
	// MaxConcurrentChunks bounds in-flight model requests for one statement.
	MaxConcurrentChunks = 3
)

// ContentGenerator is the subset of the genai client used for extraction.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor asks a Gemini model to read the statement PDF.
// Statements longer than PagesPerChunk pages are read in page windows
// concurrently and merged.
type GeminiExtractor struct {
	generator ContentGenerator
	model     string
	// pageCount is swapped in tests; it defaults to CountPages.
	pageCount func(pdfBytes []byte) (int, error)
}

// NewGeminiExtractor creates the genai client the way every model call in
// this service does.
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return NewGeminiExtractorWithGenerator(client.Models, model), nil
}

// NewGeminiExtractorWithGenerator builds an extractor around an existing
// generator. An empty model selects DefaultModelName.
func NewGeminiExtractorWithGenerator(gen ContentGenerator, model string) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{generator: gen, model: model, pageCount: CountPages}
}

// Extract implements Extractor.
func (e *GeminiExtractor) Extract(ctx context.Context, pdfBytes []byte) (*ParsedStatement, error) {
	if len(pdfBytes) == 0 {
		return nil, fmt.Errorf("GeminiExtractor.Extract: empty PDF")
	}
	start := time.Now()
	log := logger.FromContext(ctx)

	pages, err := e.pageCount(pdfBytes)
	if err != nil {
		// The model can still read PDFs our parser cannot; send it whole.
		log.Warn().Err(err).Msg("Could not count PDF pages, extracting in one request")
		pages = 0
	}

	ranges := pageRanges(pages, PagesPerChunk)
	if len(ranges) <= 1 {
		stmt, err := e.extractRange(ctx, pdfBytes, nil)
		if err != nil {
			return nil, fmt.Errorf("GeminiExtractor.Extract: %w", err)
		}
		if stmt.PageCount == 0 {
			stmt.PageCount = pages
		}
		e.finish(stmt, 1, start)
		return stmt, nil
	}

	log.Info().Int("pages", pages).Int("chunks", len(ranges)).Msg("Extracting statement in chunks")

	results := make([]*ParsedStatement, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentChunks)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			chunkStart := time.Now()
			stmt, err := e.extractRange(gctx, pdfBytes, &r)
			if err != nil {
				return fmt.Errorf("chunk %d (pages %d-%d): %w", i+1, r.Start, r.End, err)
			}
			clog := logger.FromContext(gctx)
			clog.Debug().
				Int("chunk", i+1).
				Int("transactions", len(stmt.Transactions)).
				Dur("elapsed", time.Since(chunkStart)).
				Msg("Chunk extracted")
			results[i] = stmt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("GeminiExtractor.Extract: %w", err)
	}

	stmt := MergeChunks(results)
	stmt.PageCount = pages
	e.finish(stmt, len(ranges), start)
	log.Info().
		Int("transactions", len(stmt.Transactions)).
		Int("duplicates_removed", stmt.ParsingMetadata.DuplicatesRemoved).
		Msg("Chunked extraction complete")
	return stmt, nil
}

func (e *GeminiExtractor) finish(stmt *ParsedStatement, chunks int, start time.Time) {
	stmt.ParsingMetadata.Method = MethodGemini
	stmt.ParsingMetadata.Model = e.model
	stmt.ParsingMetadata.Chunks = chunks
	stmt.ParsingMetadata.ProcessingTimeMs = time.Since(start).Milliseconds()
}

// extractRange runs one model request. A nil window means the whole document.
func (e *GeminiExtractor) extractRange(ctx context.Context, pdfBytes []byte, window *PageRange) (*ParsedStatement, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildExtractionPrompt(window)},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdfBytes,
					},
				},
			},
		},
	}

	resp, err := e.generator.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("extractRange: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("extractRange: empty response from model")
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return nil, fmt.Errorf("extractRange: unmarshal JSON: %w", err)
	}

	stmt, err := decodeStatement(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("extractRange: %w", err)
	}
	return stmt, nil
}

// PageRange is an inclusive 1-based page window.
type PageRange struct {
	Start int
	End   int
}

// pageRanges splits n pages into windows of size per. Zero or one window
// means the document is sent whole.
func pageRanges(n, per int) []PageRange {
	if n <= per || per <= 0 {
		return nil
	}
	out := make([]PageRange, 0, (n+per-1)/per)
	for s := 1; s <= n; s += per {
		e := s + per - 1
		if e > n {
			e = n
		}
		out = append(out, PageRange{Start: s, End: e})
	}
	return out
}

func buildExtractionPrompt(window *PageRange) string {
	scope := "- Parse ALL transactions in the attached statement.\n"
	if window != nil {
		scope = fmt.Sprintf(
			"- Parse ONLY the transactions printed on pages %d-%d of the attached statement.\n"+
				"- If there are no transactions on these pages, return an empty \"transactions\" array.\n",
			window.Start, window.End)
	}

	return "You are a precise financial document parser for bank and credit card statements.\n\n" +
		"Task:\n" +
		scope +
		"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
		"- Never make up transactions.\n\n" +
		"Output a single JSON object with these fields:\n" +
		"- \"transactions\": array of objects, each with:\n" +
		"  - \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
		"  - \"description\": string, exactly as printed\n" +
		"  - \"amount\": number, always POSITIVE\n" +
		"  - \"type\": \"debit\" for purchases, withdrawals and fees; \"credit\" for deposits, refunds and payments received\n" +
		"  - \"confidence\": number, 1.0 = clear, 0.8 = some ambiguity, 0.5 = uncertain\n" +
		"- \"bankName\": string or null\n" +
		"- \"accountType\": \"checking\", \"savings\", \"credit\" or \"unknown\"\n" +
		"- \"period\": {\"start\": \"YYYY-MM-DD\" or null, \"end\": \"YYYY-MM-DD\" or null}\n" +
		"- \"statementTotals\": {\"totalDebits\": number or null, \"totalCredits\": number or null, \"endingBalance\": number or null}\n" +
		"- \"pageCount\": number\n\n" +
		"Rules:\n" +
		"- If the statement has separate \"paid out\" / \"paid in\" columns, use them to set \"type\".\n" +
		"- Do NOT include pending transactions.\n" +
		"- If there is a foreign currency column, IGNORE it and use the account currency amount.\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Do NOT use ```json or any Markdown.\n" +
		"Output must begin with \"{\" and end with \"}\".\n"
}

// cleanModelJSON strips Markdown fences and any prose around the outermost
// JSON object or array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	first, last := "[", "]"
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	if objStart != -1 && (arrStart == -1 || objStart < arrStart) {
		first, last = "{", "}"
	}
	if start := strings.Index(s, first); start != -1 {
		if end := strings.LastIndex(s, last); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

// ExtractAll extracts several statements concurrently and merges them into
// one statement, removing transactions repeated across files.
func ExtractAll(ctx context.Context, ex Extractor, pdfs [][]byte) (*ParsedStatement, error) {
	results := make([]*ParsedStatement, len(pdfs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentChunks)
	for i, b := range pdfs {
		i, b := i, b
		g.Go(func() error {
			stmt, err := ex.Extract(gctx, b)
			if err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
			results[i] = stmt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ExtractAll: %w", err)
	}
	return MergeChunks(results), nil
}
