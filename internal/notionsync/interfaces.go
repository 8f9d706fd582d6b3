package notionsync

import (
	"context"

	"github.com/jomei/notionapi"
)

// NotionService is the part of the Notion API the exports use: read a whole
// database, then create, update or archive individual rows.
type NotionService interface {
	// ListPages returns every page of a database, following pagination.
	ListPages(ctx context.Context, databaseID string) ([]notionapi.Page, error)

	// CreatePage adds a row to a database and returns the new page ID.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (string, error)

	// UpdatePage overwrites the given properties of an existing row.
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) error

	// ArchivePage moves a row to the trash.
	ArchivePage(ctx context.Context, pageID string) error
}
