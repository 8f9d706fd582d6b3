package notionsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

type MockNotionService struct {
	ListPagesFunc   func(ctx context.Context, databaseID string) ([]notionapi.Page, error)
	CreatePageFunc  func(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error)
	UpdatePageFunc  func(ctx context.Context, pageID string, properties notionapi.Properties) error
	ArchivePageFunc func(ctx context.Context, pageID string) error

	created  []notionapi.Properties
	updated  []string
	archived []string
}

func (m *MockNotionService) ListPages(ctx context.Context, databaseID string) ([]notionapi.Page, error) {
	if m.ListPagesFunc != nil {
		return m.ListPagesFunc(ctx, databaseID)
	}
	return nil, nil
}

func (m *MockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error) {
	m.created = append(m.created, properties)
	if m.CreatePageFunc != nil {
		return m.CreatePageFunc(ctx, databaseID, properties)
	}
	return "new-page", nil
}

func (m *MockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error {
	m.updated = append(m.updated, pageID)
	if m.UpdatePageFunc != nil {
		return m.UpdatePageFunc(ctx, pageID, properties)
	}
	return nil
}

func (m *MockNotionService) ArchivePage(ctx context.Context, pageID string) error {
	m.archived = append(m.archived, pageID)
	if m.ArchivePageFunc != nil {
		return m.ArchivePageFunc(ctx, pageID)
	}
	return nil
}

func titledPage(id, prop, text string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			prop: &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: text}}},
		},
	}
}

func richTextPage(id, prop, text string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(id),
		Properties: notionapi.Properties{
			prop: &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: text}}},
		},
	}
}

var sampleAudit = []domain.SubscriptionAudit{
	{Name: "Netflix", MonthlyAmount: 15.99, AnnualCost: 191.88, Category: domain.SubStreaming, Frequency: domain.Monthly},
	{Name: "Spotify", MonthlyAmount: 10.99, AnnualCost: 131.88, Category: domain.SubStreaming, Frequency: domain.Monthly},
}

func TestSyncSubscriptionAudit(t *testing.T) {
	svc := &MockNotionService{
		ListPagesFunc: func(ctx context.Context, databaseID string) ([]notionapi.Page, error) {
			if databaseID != "db-subs" {
				t.Errorf("ListPages(%q), want db-subs", databaseID)
			}
			return []notionapi.Page{
				titledPage("page-netflix", PropSubscriptionName, "Netflix"),
				titledPage("page-hulu", PropSubscriptionName, "Hulu"),
			}, nil
		},
	}

	stats, err := SyncSubscriptionAudit(context.Background(), svc, "db-subs", sampleAudit, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats != (Stats{Created: 1, Updated: 1, Archived: 1}) {
		t.Errorf("stats = %+v", stats)
	}
	if len(svc.updated) != 1 || svc.updated[0] != "page-netflix" {
		t.Errorf("updated = %v", svc.updated)
	}
	if len(svc.archived) != 1 || svc.archived[0] != "page-hulu" {
		t.Errorf("archived = %v", svc.archived)
	}
	if len(svc.created) != 1 {
		t.Fatalf("created %d pages, want 1", len(svc.created))
	}
	title := svc.created[0][PropSubscriptionName].(notionapi.TitleProperty)
	if title.Title[0].Text.Content != "Spotify" {
		t.Errorf("created %q, want Spotify", title.Title[0].Text.Content)
	}
}

func TestSyncSubscriptionAudit_DryRun(t *testing.T) {
	svc := &MockNotionService{
		ListPagesFunc: func(ctx context.Context, databaseID string) ([]notionapi.Page, error) {
			return []notionapi.Page{
				titledPage("page-netflix", PropSubscriptionName, "Netflix"),
				titledPage("page-hulu", PropSubscriptionName, "Hulu"),
			}, nil
		},
	}

	stats, err := SyncSubscriptionAudit(context.Background(), svc, "db-subs", sampleAudit, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != (Stats{Created: 1, Updated: 1, Archived: 1}) {
		t.Errorf("stats = %+v", stats)
	}
	if len(svc.created)+len(svc.updated)+len(svc.archived) != 0 {
		t.Error("dry run must not write to Notion")
	}
}

func TestSyncMoneyLeaks(t *testing.T) {
	leaks := []domain.MoneyLeak{
		{ID: "leak-1", Merchant: "Overdraft Fee", Amount: 35, Type: domain.BankFee, Label: "Bank fee", Date: domain.ParseDate("2024-01-28"), AnnualProjection: 425.83},
		{ID: "leak-2", Merchant: "ATM Withdrawal Fee", Amount: 3, Type: domain.ATMFee},
	}
	svc := &MockNotionService{
		ListPagesFunc: func(ctx context.Context, databaseID string) ([]notionapi.Page, error) {
			return []notionapi.Page{
				richTextPage("page-1", PropLeakID, "leak-1"),
				richTextPage("page-old", PropLeakID, "leak-from-last-month"),
			}, nil
		},
		CreatePageFunc: func(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error) {
			return "", errors.New("rate limited")
		},
	}

	stats, err := SyncMoneyLeaks(context.Background(), svc, "db-leaks", leaks, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != (Stats{Updated: 1, Failed: 1}) {
		t.Errorf("stats = %+v", stats)
	}
	if len(svc.archived) != 0 {
		t.Error("older leaks must be kept")
	}
}

func TestExportAnalysis(t *testing.T) {
	queryErr := errors.New("unauthorized")
	svc := &MockNotionService{
		ListPagesFunc: func(ctx context.Context, databaseID string) ([]notionapi.Page, error) {
			if databaseID == "broken" {
				return nil, queryErr
			}
			return nil, nil
		},
	}
	result := &pipeline.AnalysisResult{
		SubscriptionAudit: sampleAudit,
		MoneyLeaks:        []domain.MoneyLeak{{ID: "leak-1", Merchant: "Overdraft Fee", Amount: 35, Type: domain.BankFee}},
	}

	out, err := ExportAnalysis(context.Background(), svc, ExportConfig{SubscriptionsDB: "subs"}, result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Subscriptions.Created != 2 || out.Leaks != (Stats{}) {
		t.Errorf("export = %+v, want only subscriptions written", out)
	}

	if _, err := ExportAnalysis(context.Background(), svc, ExportConfig{LeaksDB: "broken"}, result); !errors.Is(err, queryErr) {
		t.Errorf("error = %v, want wrapped query error", err)
	}
	if _, err := ExportAnalysis(context.Background(), svc, ExportConfig{}, nil); err == nil {
		t.Error("expected error for nil result")
	}
}

func TestMoneyLeakToNotionProperties(t *testing.T) {
	props := MoneyLeakToNotionProperties(domain.MoneyLeak{
		ID: "leak-1", Merchant: "Overdraft Fee", Amount: 35, Type: domain.BankFee,
		Label: "Bank fee", Date: domain.ParseDate("2024-01-28"), AnnualProjection: 425.83,
	})

	if got := props[PropLeakType].(notionapi.SelectProperty).Select.Name; got != "bank_fee" {
		t.Errorf("Type = %q", got)
	}
	if got := props[PropLeakAmount].(notionapi.NumberProperty).Number; got != 35 {
		t.Errorf("Amount = %v", got)
	}
	date := props[PropLeakDate].(notionapi.DateProperty)
	if date.Date == nil || date.Date.Start == nil {
		t.Fatal("expected a date property")
	}
	if got := time.Time(*date.Date.Start); !got.Equal(time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", got)
	}

	undated := MoneyLeakToNotionProperties(domain.MoneyLeak{ID: "leak-2", Merchant: "Fee", Type: domain.ATMFee})
	if _, ok := undated[PropLeakDate]; ok {
		t.Error("undated leak should not carry a date property")
	}
	if _, ok := undated[PropLeakLabel]; ok {
		t.Error("empty label should be omitted")
	}
}

func TestPlainText(t *testing.T) {
	page := notionapi.Page{Properties: notionapi.Properties{
		"A": notionapi.TitleProperty{Title: []notionapi.RichText{{Text: &notionapi.Text{Content: "from text"}}}},
		"B": &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "plain"}}},
		"C": notionapi.NumberProperty{Number: 1},
	}}

	tests := map[string]string{"A": "from text", "B": "plain", "C": "", "missing": ""}
	for prop, want := range tests {
		if got := plainText(page, prop); got != want {
			t.Errorf("plainText(%q) = %q, want %q", prop, got, want)
		}
	}
}
