package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/logger"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

// ExportConfig names the target databases. An empty ID skips that export.
type ExportConfig struct {
	SubscriptionsDB string
	LeaksDB         string
	DryRun          bool
}

// Stats counts what an export did to one database.
type Stats struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// ExportResult is the outcome of ExportAnalysis.
type ExportResult struct {
	Subscriptions Stats `json:"subscriptions"`
	Leaks         Stats `json:"leaks"`
}

// ExportAnalysis writes an analysis' subscription audit and money leaks to Notion.
func ExportAnalysis(ctx context.Context, notionClient NotionService, cfg ExportConfig, result *pipeline.AnalysisResult) (*ExportResult, error) {
	if result == nil {
		return nil, fmt.Errorf("ExportAnalysis: no analysis result")
	}

	out := &ExportResult{}
	if cfg.SubscriptionsDB != "" {
		stats, err := SyncSubscriptionAudit(ctx, notionClient, cfg.SubscriptionsDB, result.SubscriptionAudit, cfg.DryRun)
		if err != nil {
			return nil, fmt.Errorf("ExportAnalysis: %w", err)
		}
		out.Subscriptions = stats
	}
	if cfg.LeaksDB != "" {
		stats, err := SyncMoneyLeaks(ctx, notionClient, cfg.LeaksDB, result.MoneyLeaks, cfg.DryRun)
		if err != nil {
			return nil, fmt.Errorf("ExportAnalysis: %w", err)
		}
		out.Leaks = stats
	}
	return out, nil
}

// SyncSubscriptionAudit mirrors the audit into a Notion database keyed by
// subscription name. Pages for subscriptions no longer detected are archived,
// so the database always shows the current recurring spend.
func SyncSubscriptionAudit(ctx context.Context, notionClient NotionService, notionDBID string, audit []domain.SubscriptionAudit, dryRun bool) (Stats, error) {
	log := logger.FromContext(ctx)
	log.Info().
		Int("subscriptions", len(audit)).
		Bool("dry_run", dryRun).
		Msg("Starting subscription audit sync to Notion")

	pages, err := notionClient.ListPages(ctx, notionDBID)
	if err != nil {
		return Stats{}, fmt.Errorf("SyncSubscriptionAudit: %w", err)
	}

	existing := indexPages(pages, PropSubscriptionName)
	current := make(map[string]bool, len(audit))

	var stats Stats
	for _, a := range audit {
		current[a.Name] = true
		upsertPage(ctx, notionClient, notionDBID, existing[a.Name], a.Name,
			SubscriptionAuditToNotionProperties(a), dryRun, &stats)
	}

	for name, pageID := range existing {
		if current[name] {
			continue
		}
		if dryRun {
			log.Info().Str("subscription", name).Str("page_id", pageID).Msg("[DRY RUN] Would archive Notion page")
			stats.Archived++
			continue
		}
		if err := notionClient.ArchivePage(ctx, pageID); err != nil {
			log.Warn().Err(err).Str("subscription", name).Str("page_id", pageID).Msg("Failed to archive stale Notion page")
			stats.Failed++
			continue
		}
		stats.Archived++
	}

	logStats(ctx, "Subscription audit sync completed", stats)
	return stats, nil
}

// SyncMoneyLeaks upserts money leaks keyed by their stable ID. Leaks from
// earlier statements are kept.
func SyncMoneyLeaks(ctx context.Context, notionClient NotionService, notionDBID string, leaks []domain.MoneyLeak, dryRun bool) (Stats, error) {
	log := logger.FromContext(ctx)
	log.Info().
		Int("leaks", len(leaks)).
		Bool("dry_run", dryRun).
		Msg("Starting money leak sync to Notion")

	pages, err := notionClient.ListPages(ctx, notionDBID)
	if err != nil {
		return Stats{}, fmt.Errorf("SyncMoneyLeaks: %w", err)
	}

	existing := indexPages(pages, PropLeakID)

	var stats Stats
	for _, l := range leaks {
		upsertPage(ctx, notionClient, notionDBID, existing[l.ID], l.ID,
			MoneyLeakToNotionProperties(l), dryRun, &stats)
	}

	logStats(ctx, "Money leak sync completed", stats)
	return stats, nil
}

// upsertPage updates pageID when set and creates a page otherwise. Failures
// are logged and counted so one bad row does not stop the export.
func upsertPage(ctx context.Context, notionClient NotionService, notionDBID, pageID, key string, props notionapi.Properties, dryRun bool, stats *Stats) {
	log := logger.FromContext(ctx)

	if dryRun {
		if pageID != "" {
			log.Info().Str("key", key).Str("page_id", pageID).Msg("[DRY RUN] Would update Notion page")
			stats.Updated++
		} else {
			log.Info().Str("key", key).Msg("[DRY RUN] Would create Notion page")
			stats.Created++
		}
		return
	}

	if pageID != "" {
		if err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
			log.Warn().Err(err).Str("key", key).Str("page_id", pageID).Msg("Failed to update Notion page")
			stats.Failed++
			return
		}
		stats.Updated++
		return
	}

	newID, err := notionClient.CreatePage(ctx, notionDBID, props)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to create Notion page")
		stats.Failed++
		return
	}
	log.Debug().Str("key", key).Str("page_id", newID).Msg("Created Notion page")
	stats.Created++
}

func logStats(ctx context.Context, msg string, stats Stats) {
	log := logger.FromContext(ctx)
	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg(msg)
}

// indexPages maps the text of property name to page ID. Pages without the
// property are skipped.
func indexPages(pages []notionapi.Page, name string) map[string]string {
	out := make(map[string]string, len(pages))
	for _, page := range pages {
		if key := plainText(page, name); key != "" {
			out[key] = string(page.ID)
		}
	}
	return out
}
