package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/logger"
)

const (
	DefaultDatasetID = "finance"
	DefaultTableID   = "transactions"
)

// TransactionSource reads already-ingested transactions from a BigQuery table
// so they can be analyzed without a statement PDF.
type TransactionSource struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
}

// NewTransactionSource creates a source with a shared BigQuery client.
// Empty dataset or table names fall back to finance.transactions.
func NewTransactionSource(ctx context.Context, projectID, datasetID, tableID string) (*TransactionSource, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewTransactionSource: project ID is required")
	}
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	if tableID == "" {
		tableID = DefaultTableID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionSource: creating client: %w", err)
	}
	return &TransactionSource{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

// Close closes the BigQuery client connection.
func (s *TransactionSource) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// QueryTransactionsByDateRange returns the rows dated within [start, end].
func (s *TransactionSource) QueryTransactionsByDateRange(ctx context.Context, start, end civil.Date) ([]*TransactionRow, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: end %s is before start %s", end, start)
	}

	q := s.client.Query(dateRangeQuery(s.projectID, s.datasetID, s.tableID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: start},
		{Name: "end_date", Value: end},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// RawTransactions queries a date range and converts the rows for analysis.
func (s *TransactionSource) RawTransactions(ctx context.Context, start, end civil.Date) ([]domain.RawTransaction, error) {
	rows, err := s.QueryTransactionsByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("start", start.String()).
		Str("end", end.String()).
		Int("rows", len(rows)).
		Msg("Loaded transactions from BigQuery")

	return ToRawTransactions(rows), nil
}

func dateRangeQuery(projectID, datasetID, tableID string) string {
	return fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.transaction_date,
			t.amount,
			t.currency,
			t.direction,
			t.raw_description,
			t.normalized_description
		FROM `+"`%s.%s.%s`"+` t
		WHERE t.transaction_date >= @start_date
		  AND t.transaction_date <= @end_date
		ORDER BY t.transaction_date, t.transaction_id
	`, projectID, datasetID, tableID)
}
