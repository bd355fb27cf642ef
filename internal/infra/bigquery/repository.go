// Package bigquery is the warehouse pipeline.Store: one dataset holding the
// scan runs, stored transactions and the account and category registries.
package bigquery

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/dvloznov/smsledger/internal/pipeline"
)

const (
	defaultDataset = "smsledger"

	transactionsTable     = "sms_transactions"
	detectedAccountsTable = "detected_accounts"
	accountsTable         = "accounts"
	categoriesTable       = "categories"
	scanRunsTable         = "scan_runs"
)

// Config selects the project and dataset the repository writes to.
type Config struct {
	ProjectID       string
	Dataset         string
	CredentialsFile string // optional; application default credentials otherwise
}

// Repository implements pipeline.Store on BigQuery. It holds one shared client.
type Repository struct {
	client  *bigquery.Client
	project string
	dataset string
}

var _ pipeline.Store = (*Repository)(nil)

// NewRepository creates a client for cfg.ProjectID.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("NewRepository: project id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, cfg.ProjectID, cfg.Dataset), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, project, dataset string) *Repository {
	if dataset == "" {
		dataset = defaultDataset
	}
	return &Repository{client: client, project: project, dataset: dataset}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) table(name string) *bigquery.Table {
	return r.client.DatasetInProject(r.project, r.dataset).Table(name)
}

// fq returns the fully qualified `project.dataset.table` name for queries.
func (r *Repository) fq(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.project, r.dataset, name)
}

// runDML runs a DML statement and waits for it to finish.
func (r *Repository) runDML(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
