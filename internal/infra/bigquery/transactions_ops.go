package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/smsledger/internal/domain"
)

// InsertTransactions streams the transactions whose source hash is not yet
// stored. Each row carries its transaction id as insertID so retried
// batches are deduplicated by the streaming API as well.
func (r *Repository) InsertTransactions(ctx context.Context, runID string, txs []domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	existing, err := r.existingHashes(ctx, txs)
	if err != nil {
		return 0, fmt.Errorf("InsertTransactions: %w", err)
	}

	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return 0, fmt.Errorf("InsertTransactions: inferring schema: %w", err)
	}

	created := time.Now().UTC()
	var savers []*bigquery.StructSaver
	for _, t := range txs {
		if existing[t.SourceHash] {
			continue
		}
		existing[t.SourceHash] = true
		savers = append(savers, &bigquery.StructSaver{
			Struct:   toTransactionRow(runID, t, created),
			Schema:   schema,
			InsertID: t.ID,
		})
	}
	if len(savers) == 0 {
		return 0, nil
	}

	if err := r.table(transactionsTable).Inserter().Put(ctx, savers); err != nil {
		return 0, fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return len(savers), nil
}

func (r *Repository) existingHashes(ctx context.Context, txs []domain.Transaction) (map[string]bool, error) {
	hashes := make([]string, 0, len(txs))
	for _, t := range txs {
		hashes = append(hashes, t.SourceHash)
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT source_hash
		FROM %s
		WHERE source_hash IN UNNEST(@hashes)
	`, r.fq(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "hashes", Value: hashes}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query existing hashes: %w", err)
	}

	seen := make(map[string]bool)
	for {
		var row struct {
			SourceHash string `bigquery:"source_hash"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter existing hashes: %w", err)
		}
		seen[row.SourceHash] = true
	}
	return seen, nil
}

// ListTransactions returns transactions dated within [startDate, endDate]
// from successful scan runs, oldest first.
func (r *Repository) ListTransactions(ctx context.Context, startDate, endDate time.Time) ([]domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT t.*
		FROM %s t
		INNER JOIN %s sr
		  ON t.scan_run_id = sr.scan_run_id
		WHERE t.transaction_date >= @start_date
		  AND t.transaction_date <= @end_date
		  AND sr.status = 'SUCCESS'
		ORDER BY t.transaction_ts, t.transaction_id
	`, r.fq(transactionsTable), r.fq(scanRunsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: civil.DateOf(startDate)},
		{Name: "end_date", Value: civil.DateOf(endDate)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var out []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		t, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}
