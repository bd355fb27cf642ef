package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/smsledger/internal/domain"
)

// numericScale is the fixed scale of the BigQuery NUMERIC type.
const numericScale = 9

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	ScanRunID     string `bigquery:"scan_run_id"`    // REQUIRED

	AccountID bigquery.NullString `bigquery:"account_id"` // NULLABLE; unlinked messages

	TransactionDate civil.Date `bigquery:"transaction_date"` // partition column
	TransactionTS   time.Time  `bigquery:"transaction_ts"`

	Amount       *big.Rat `bigquery:"amount"` // NUMERIC, signed
	Currency     string   `bigquery:"currency"`
	BalanceAfter *big.Rat `bigquery:"balance_after"` // NULLABLE NUMERIC

	Direction    string              `bigquery:"direction"`
	Description  string              `bigquery:"description"`
	MerchantName bigquery.NullString `bigquery:"merchant_name"`

	CategoryID   string `bigquery:"category_id"`
	CategoryName string `bigquery:"category_name"`

	Sender     string `bigquery:"sender"`
	RawBody    string `bigquery:"raw_body"`
	SourceHash string `bigquery:"source_hash"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

func toTransactionRow(runID string, t domain.Transaction, created time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   t.ID,
		ScanRunID:       runID,
		AccountID:       nullString(t.AccountID),
		TransactionDate: civil.DateOf(t.Date),
		TransactionTS:   t.Date,
		Amount:          t.Amount.Rat(),
		Currency:        t.Currency,
		Direction:       string(t.Direction),
		Description:     t.Description,
		MerchantName:    nullString(t.MerchantName),
		CategoryID:      t.CategoryID,
		CategoryName:    t.CategoryName,
		Sender:          t.Sender,
		RawBody:         t.RawBody,
		SourceHash:      t.SourceHash,
		CreatedTS:       created,
	}
	if t.BalanceAfter != nil {
		row.BalanceAfter = t.BalanceAfter.Rat()
	}
	return row
}

func (row *TransactionRow) toDomain() (domain.Transaction, error) {
	amount, err := ratToDecimal(row.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("amount of %s: %w", row.TransactionID, err)
	}
	t := domain.Transaction{
		ID:           row.TransactionID,
		AccountID:    stringPtr(row.AccountID),
		Date:         row.TransactionTS,
		Description:  row.Description,
		Amount:       amount,
		Currency:     row.Currency,
		Direction:    domain.Direction(row.Direction),
		MerchantName: stringPtr(row.MerchantName),
		CategoryID:   row.CategoryID,
		CategoryName: row.CategoryName,
		Sender:       row.Sender,
		RawBody:      row.RawBody,
		SourceHash:   row.SourceHash,
	}
	if row.BalanceAfter != nil {
		b, err := ratToDecimal(row.BalanceAfter)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("balance of %s: %w", row.TransactionID, err)
		}
		t.BalanceAfter = &b
	}
	return t, nil
}

func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, fmt.Errorf("missing NUMERIC value")
	}
	return decimal.NewFromString(r.FloatString(numericScale))
}

func nullString(s *string) bigquery.NullString {
	if s == nil {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *s, Valid: true}
}

func stringPtr(s bigquery.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.StringVal
	return &v
}
