package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/smsledger/internal/domain"
)

type AccountRow struct {
	AccountID string `bigquery:"account_id"` // REQUIRED

	AccountName   string `bigquery:"account_name"`
	Institution   string `bigquery:"institution"`    // NULLABLE (empty string → "")
	AccountType   string `bigquery:"account_type"`   // bank | card | wallet
	Subtype       string `bigquery:"subtype"`        // NULLABLE
	AccountNumber string `bigquery:"account_number"` // NULLABLE, may be masked

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

func (row *AccountRow) toDomain() domain.Account {
	return domain.Account{
		ID:          row.AccountID,
		Name:        row.AccountName,
		Institution: row.Institution,
		Type:        domain.AccountType(row.AccountType),
		Subtype:     row.Subtype,
		Number:      row.AccountNumber,
	}
}

// DetectedAccountRow is one entry of the detected-account registry.
type DetectedAccountRow struct {
	DetectedAccountID   string    `bigquery:"detected_account_id"` // REQUIRED
	Institution         string    `bigquery:"institution"`
	AccountNumberSuffix string    `bigquery:"account_number_suffix"`
	Kind                string    `bigquery:"kind"`
	LastTransactionTS   time.Time `bigquery:"last_transaction_ts"`
	ObservedSenderIDs   []string  `bigquery:"observed_sender_ids"` // REPEATED STRING

	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

func (row *DetectedAccountRow) toDomain() domain.DetectedAccount {
	return domain.DetectedAccount{
		ID:                  row.DetectedAccountID,
		Institution:         row.Institution,
		AccountNumberSuffix: row.AccountNumberSuffix,
		Kind:                domain.AccountKind(row.Kind),
		LastTransactionAt:   row.LastTransactionTS,
		ObservedSenderIDs:   row.ObservedSenderIDs,
	}
}
