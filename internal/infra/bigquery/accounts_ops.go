package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/smsledger/internal/domain"
)

// ListAccounts retrieves the known accounts ordered by name.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			account_id,
			account_name,
			IFNULL(institution, "") AS institution,
			IFNULL(account_type, "bank") AS account_type,
			IFNULL(subtype, "") AS subtype,
			IFNULL(account_number, "") AS account_number,
			created_ts,
			updated_ts
		FROM %s
		ORDER BY account_name, account_id
	`, r.fq(accountsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: query read: %w", err)
	}

	var out []domain.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccounts: iter next: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpsertAccount adds or updates a known account keyed by its id.
func (r *Repository) UpsertAccount(ctx context.Context, a domain.Account) error {
	err := r.runDML(ctx, fmt.Sprintf(`
		MERGE %s T
		USING (SELECT @account_id AS account_id) S
		ON T.account_id = S.account_id
		WHEN MATCHED THEN UPDATE SET
			account_name = @account_name,
			institution = @institution,
			account_type = @account_type,
			subtype = @subtype,
			account_number = @account_number,
			updated_ts = CURRENT_TIMESTAMP()
		WHEN NOT MATCHED THEN INSERT (
			account_id, account_name, institution, account_type, subtype, account_number, created_ts, updated_ts
		) VALUES (
			@account_id, @account_name, @institution, @account_type, @subtype, @account_number,
			CURRENT_TIMESTAMP(), CURRENT_TIMESTAMP()
		)
	`, r.fq(accountsTable)), []bigquery.QueryParameter{
		{Name: "account_id", Value: a.ID},
		{Name: "account_name", Value: a.Name},
		{Name: "institution", Value: a.Institution},
		{Name: "account_type", Value: string(a.Type)},
		{Name: "subtype", Value: a.Subtype},
		{Name: "account_number", Value: a.Number},
	})
	if err != nil {
		return fmt.Errorf("UpsertAccount: %w", err)
	}
	return nil
}

// UpsertDetectedAccounts merges accounts into the registry. Observed sender
// ids are unioned and last_transaction_ts only moves forward.
func (r *Repository) UpsertDetectedAccounts(ctx context.Context, accounts []domain.DetectedAccount) error {
	for _, a := range accounts {
		senders := a.ObservedSenderIDs
		if senders == nil {
			senders = []string{}
		}
		err := r.runDML(ctx, fmt.Sprintf(`
			MERGE %s T
			USING (SELECT @id AS detected_account_id) S
			ON T.detected_account_id = S.detected_account_id
			WHEN MATCHED THEN UPDATE SET
				institution = IF(@last_ts >= T.last_transaction_ts, @institution, T.institution),
				account_number_suffix = IF(@last_ts >= T.last_transaction_ts, @suffix, T.account_number_suffix),
				kind = IF(@last_ts >= T.last_transaction_ts, @kind, T.kind),
				last_transaction_ts = GREATEST(T.last_transaction_ts, @last_ts),
				observed_sender_ids = ARRAY(
					SELECT DISTINCT s FROM UNNEST(ARRAY_CONCAT(T.observed_sender_ids, @senders)) AS s ORDER BY s
				),
				updated_ts = CURRENT_TIMESTAMP()
			WHEN NOT MATCHED THEN INSERT (
				detected_account_id, institution, account_number_suffix, kind,
				last_transaction_ts, observed_sender_ids, updated_ts
			) VALUES (
				@id, @institution, @suffix, @kind, @last_ts, @senders, CURRENT_TIMESTAMP()
			)
		`, r.fq(detectedAccountsTable)), []bigquery.QueryParameter{
			{Name: "id", Value: a.ID},
			{Name: "institution", Value: a.Institution},
			{Name: "suffix", Value: a.AccountNumberSuffix},
			{Name: "kind", Value: string(a.Kind)},
			{Name: "last_ts", Value: a.LastTransactionAt},
			{Name: "senders", Value: senders},
		})
		if err != nil {
			return fmt.Errorf("UpsertDetectedAccounts: %s: %w", a.ID, err)
		}
	}
	return nil
}

// ListDetectedAccounts returns the registry, most recently active first.
func (r *Repository) ListDetectedAccounts(ctx context.Context) ([]domain.DetectedAccount, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s
		ORDER BY last_transaction_ts DESC, detected_account_id
	`, r.fq(detectedAccountsTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListDetectedAccounts: query read: %w", err)
	}

	var out []domain.DetectedAccount
	for {
		var row DetectedAccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListDetectedAccounts: iter next: %w", err)
		}
		out = append(out, row.toDomain())
	}
	return out, nil
}
