package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/logger"
)

// TextConfidence is assigned to every transaction read from the text layer.
const TextConfidence = 0.8

var (
	lineRe   = regexp.MustCompile(`(\d{1,2}/\d{1,2}(?:/\d{2,4})?)\s+(.+?)\s+(-?\$?[\d,]+\.\d{2})\s*$`)
	periodRe = regexp.MustCompile(`(?i)statement\s+period[:\s]+(\d{1,2}/\d{1,2}/?\d{0,4})\s*(?:-|–|to)+\s*(\d{1,2}/\d{1,2}/?\d{0,4})`)
)

// KnownBanks are matched, in order, against the statement text.
var KnownBanks = []string{
	"Chase",
	"Bank of America",
	"Wells Fargo",
	"Capital One",
	"Citi",
	"American Express",
	"Discover",
}

// TextExtractor reads transactions from the PDF text layer without a model.
// It only understands single-line "MM/DD description amount" layouts.
type TextExtractor struct {
	now func() time.Time
}

// NewTextExtractor creates a TextExtractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{now: time.Now}
}

// Extract implements Extractor.
func (e *TextExtractor) Extract(ctx context.Context, pdfBytes []byte) (*ParsedStatement, error) {
	start := time.Now()
	text, err := PlainText(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("TextExtractor.Extract: %w", err)
	}
	stmt := e.ParseText(text)
	if pages, err := CountPages(pdfBytes); err == nil {
		stmt.PageCount = pages
	}
	stmt.ParsingMetadata.ProcessingTimeMs = time.Since(start).Milliseconds()

	log := logger.FromContext(ctx)
	log.Info().
		Int("transactions", len(stmt.Transactions)).
		Int("text_length", len(text)).
		Msg("Parsed statement text")
	return stmt, nil
}

// ParseText builds a statement from already-extracted text.
func (e *TextExtractor) ParseText(text string) *ParsedStatement {
	period := DetectPeriod(text)
	year := e.now().Year()
	if period.End != nil {
		if d := domain.ParseDate(*period.End); d.IsValid() {
			year = d.Year
		}
	}

	txs := ParseLines(text, year)
	return &ParsedStatement{
		Transactions: txs,
		BankName:     DetectBankName(text),
		AccountType:  AccountUnknown,
		Period:       period,
		ParsingMetadata: Metadata{
			Method:                 MethodText,
			TotalTransactionsFound: len(txs),
			LowConfidenceCount:     countLowConfidence(txs),
			Chunks:                 1,
		},
	}
}

// ParseLines matches "MM/DD[/YY] description amount" lines. A negative amount
// is a debit, anything else a credit. Dates without a year use defaultYear.
func ParseLines(text string, defaultYear int) []domain.RawTransaction {
	out := []domain.RawTransaction{}
	for _, line := range strings.Split(text, "\n") {
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		amountStr := m[3]
		amount, err := strconv.ParseFloat(strings.NewReplacer("$", "", ",", "").Replace(amountStr), 64)
		if err != nil {
			continue
		}

		typ := domain.Credit
		if amount < 0 || strings.Contains(amountStr, "-") {
			typ = domain.Debit
		}
		if amount < 0 {
			amount = -amount
		}

		out = append(out, domain.RawTransaction{
			Date:        usDate(m[1], defaultYear),
			Description: strings.TrimSpace(m[2]),
			Amount:      amount,
			Type:        typ,
			Confidence:  TextConfidence,
		})
	}
	return out
}

// DetectBankName returns the first known bank named in the text.
func DetectBankName(text string) *string {
	lower := strings.ToLower(text)
	for _, bank := range KnownBanks {
		if strings.Contains(lower, strings.ToLower(bank)) {
			name := bank
			return &name
		}
	}
	return nil
}

// DetectPeriod reads a "Statement period: MM/DD/YYYY - MM/DD/YYYY" line.
// Dates are returned as YYYY-MM-DD; a date without a year borrows the
// other side's year.
func DetectPeriod(text string) Period {
	m := periodRe.FindStringSubmatch(text)
	if m == nil {
		return Period{}
	}
	end := usDate(m[2], 0)
	start := usDate(m[1], end.Year)
	if !end.IsValid() && start.IsValid() {
		end = usDate(m[2], start.Year)
	}
	// A start after the end means the period crosses a year boundary.
	if start.IsValid() && end.IsValid() && start.After(end) {
		start.Year--
	}
	return Period{Start: isoOrNil(start), End: isoOrNil(end)}
}

// usDate parses M/D, M/D/YY or M/D/YYYY. A zero defaultYear leaves
// year-less dates unresolved.
func usDate(s string, defaultYear int) civil.Date {
	parts := strings.Split(strings.TrimSuffix(s, "/"), "/")
	if len(parts) < 2 {
		return civil.Date{}
	}
	month, err1 := strconv.Atoi(parts[0])
	day, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return civil.Date{}
	}
	year := defaultYear
	if len(parts) == 3 && parts[2] != "" {
		y, err := strconv.Atoi(parts[2])
		if err != nil {
			return civil.Date{}
		}
		if y < 100 {
			y += 2000
		}
		year = y
	}
	if year == 0 {
		return civil.Date{}
	}
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}
	}
	return d
}

func isoOrNil(d civil.Date) *string {
	if !d.IsValid() {
		return nil
	}
	s := d.String()
	return &s
}

// FallbackExtractor tries Primary and, when it fails or finds nothing,
// Secondary.
type FallbackExtractor struct {
	Primary   Extractor
	Secondary Extractor
}

// Extract implements Extractor.
func (f *FallbackExtractor) Extract(ctx context.Context, pdfBytes []byte) (*ParsedStatement, error) {
	log := logger.FromContext(ctx)

	stmt, err := f.Primary.Extract(ctx, pdfBytes)
	if err == nil && len(stmt.Transactions) > 0 {
		return stmt, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("Primary extraction failed, falling back")
	} else {
		log.Warn().Msg("Primary extraction found no transactions, falling back")
	}

	fallback, ferr := f.Secondary.Extract(ctx, pdfBytes)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("FallbackExtractor.Extract: primary: %v; secondary: %w", err, ferr)
		}
		// Primary succeeded with an empty statement; that is still an answer.
		return stmt, nil
	}
	if err == nil && len(fallback.Transactions) == 0 {
		return stmt, nil
	}
	return fallback, nil
}
