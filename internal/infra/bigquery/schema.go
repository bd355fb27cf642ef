package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/smsledger/internal/logger"
)

type tableSpec struct {
	name         string
	row          any
	partitionCol string
}

func tableSpecs() []tableSpec {
	return []tableSpec{
		{name: scanRunsTable, row: ScanRunRow{}},
		{name: transactionsTable, row: TransactionRow{}, partitionCol: "transaction_date"},
		{name: detectedAccountsTable, row: DetectedAccountRow{}},
		{name: accountsTable, row: AccountRow{}},
		{name: categoriesTable, row: CategoryRow{}},
	}
}

// EnsureTables creates the dataset and any missing table. Schemas are
// inferred from the row structs; existing tables are left untouched.
func (r *Repository) EnsureTables(ctx context.Context) error {
	log := logger.FromContext(ctx)

	ds := r.client.DatasetInProject(r.project, r.dataset)
	if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("EnsureTables: creating dataset %s: %w", r.dataset, err)
	}

	for _, spec := range tableSpecs() {
		schema, err := bigquery.InferSchema(spec.row)
		if err != nil {
			return fmt.Errorf("EnsureTables: inferring schema of %s: %w", spec.name, err)
		}
		md := &bigquery.TableMetadata{Schema: schema}
		if spec.partitionCol != "" {
			md.TimePartitioning = &bigquery.TimePartitioning{
				Type:  bigquery.DayPartitioningType,
				Field: spec.partitionCol,
			}
		}

		err = ds.Table(spec.name).Create(ctx, md)
		switch {
		case err == nil:
			log.Info().Str("table", spec.name).Msg("created table")
		case isAlreadyExists(err):
			log.Debug().Str("table", spec.name).Msg("table exists")
		default:
			return fmt.Errorf("EnsureTables: creating table %s: %w", spec.name, err)
		}
	}
	return nil
}

func isAlreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}
