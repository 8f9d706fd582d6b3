package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/spendscan/internal/domain"
)

// Property names of the subscription audit database.
const (
	PropSubscriptionName = "Subscription"
	PropMonthly          = "Monthly"
	PropAnnual           = "Annual"
	PropSubCategory      = "Category"
	PropFrequency        = "Frequency"
)

// Property names of the money leak database.
const (
	PropLeakMerchant   = "Merchant"
	PropLeakID         = "Leak ID"
	PropLeakAmount     = "Amount"
	PropLeakProjection = "Annual Projection"
	PropLeakType       = "Type"
	PropLeakLabel      = "Label"
	PropLeakDate       = "Date"
)

// SubscriptionAuditToNotionProperties converts an audit line to Notion properties.
func SubscriptionAuditToNotionProperties(a domain.SubscriptionAudit) notionapi.Properties {
	props := notionapi.Properties{
		PropSubscriptionName: titleProperty(a.Name),
		PropMonthly:          notionapi.NumberProperty{Number: a.MonthlyAmount},
		PropAnnual:           notionapi.NumberProperty{Number: a.AnnualCost},
	}

	if a.Category != "" {
		props[PropSubCategory] = notionapi.SelectProperty{Select: notionapi.Option{Name: string(a.Category)}}
	}
	if a.Frequency != "" {
		props[PropFrequency] = notionapi.SelectProperty{Select: notionapi.Option{Name: string(a.Frequency)}}
	}

	return props
}

// MoneyLeakToNotionProperties converts a money leak to Notion properties.
func MoneyLeakToNotionProperties(l domain.MoneyLeak) notionapi.Properties {
	props := notionapi.Properties{
		PropLeakMerchant:   titleProperty(l.Merchant),
		PropLeakID:         richTextProperty(l.ID),
		PropLeakAmount:     notionapi.NumberProperty{Number: l.Amount},
		PropLeakProjection: notionapi.NumberProperty{Number: l.AnnualProjection},
		PropLeakType:       notionapi.SelectProperty{Select: notionapi.Option{Name: string(l.Type)}},
	}

	if l.Label != "" {
		props[PropLeakLabel] = richTextProperty(l.Label)
	}
	if l.Date.IsValid() {
		props[PropLeakDate] = dateProperty(l.Date)
	}

	return props
}

func titleProperty(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: s},
			},
		},
	}
}

func richTextProperty(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{
			{
				Type: notionapi.ObjectTypeText,
				Text: &notionapi.Text{Content: s},
			},
		},
	}
}

func dateProperty(d civil.Date) notionapi.DateProperty {
	start := notionapi.Date(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &start},
	}
}

// plainText reads a title or rich text property back from a queried page.
func plainText(page notionapi.Page, name string) string {
	var parts []notionapi.RichText
	switch prop := page.Properties[name].(type) {
	case *notionapi.TitleProperty:
		parts = prop.Title
	case notionapi.TitleProperty:
		parts = prop.Title
	case *notionapi.RichTextProperty:
		parts = prop.RichText
	case notionapi.RichTextProperty:
		parts = prop.RichText
	}
	if len(parts) == 0 {
		return ""
	}
	if parts[0].PlainText != "" {
		return parts[0].PlainText
	}
	if parts[0].Text != nil {
		return parts[0].Text.Content
	}
	return ""
}
