package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/spendscan/internal/logger"
)

const (
	// notionMaxPageSize is the largest page size the query endpoint accepts.
	notionMaxPageSize = 100
	// maxQueryPages bounds ListPages so a cursor that never ends cannot spin forever.
	maxQueryPages = 500
)

type (
	queryFunc  func(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	createFunc func(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	updateFunc func(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
)

// NotionClient implements NotionService on top of jomei/notionapi.
type NotionClient struct {
	query    queryFunc
	create   createFunc
	update   updateFunc
	pageSize int
}

// NewNotionClient creates a client authenticated with an integration token.
func NewNotionClient(token string) *NotionClient {
	c := notionapi.NewClient(notionapi.Token(token))
	return &NotionClient{
		query:    c.Database.Query,
		create:   c.Page.Create,
		update:   c.Page.Update,
		pageSize: notionMaxPageSize,
	}
}

// ListPages implements NotionService.
func (n *NotionClient) ListPages(ctx context.Context, databaseID string) ([]notionapi.Page, error) {
	log := logger.FromContext(ctx)

	pages := []notionapi.Page{}
	req := &notionapi.DatabaseQueryRequest{PageSize: n.pageSize}
	for i := 0; i < maxQueryPages; i++ {
		resp, err := n.query(ctx, notionapi.DatabaseID(databaseID), req)
		if err != nil {
			return nil, fmt.Errorf("ListPages: query %s: %w", databaseID, err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			log.Debug().Str("database_id", databaseID).Int("pages", len(pages)).Msg("Listed Notion database")
			return pages, nil
		}
		req = &notionapi.DatabaseQueryRequest{PageSize: n.pageSize, StartCursor: resp.NextCursor}
	}
	return nil, fmt.Errorf("ListPages: %s has more than %d result pages", databaseID, maxQueryPages)
}

// CreatePage implements NotionService.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error) {
	page, err := n.create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return "", fmt.Errorf("CreatePage: %w", err)
	}
	return string(page.ID), nil
}

// UpdatePage implements NotionService.
func (n *NotionClient) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error {
	if _, err := n.update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: properties}); err != nil {
		return fmt.Errorf("UpdatePage %s: %w", pageID, err)
	}
	return nil
}

// ArchivePage implements NotionService.
func (n *NotionClient) ArchivePage(ctx context.Context, pageID string) error {
	if _, err := n.update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Archived: true}); err != nil {
		return fmt.Errorf("ArchivePage %s: %w", pageID, err)
	}
	return nil
}

var _ NotionService = (*NotionClient)(nil)
