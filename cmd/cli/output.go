package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/smsledger/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printParsed(w io.Writer, txs []domain.ParsedTransaction, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSENDER\tDIRECTION\tAMOUNT\tBALANCE\tMERCHANT\tCATEGORY\tACCOUNT")
	for _, t := range txs {
		balance := "-"
		if t.Balance != nil {
			balance = t.Balance.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Timestamp.In(loc).Format(timeLayout), t.Sender, t.Direction, t.Amount.StringFixed(2),
			balance, deref(t.MerchantName), t.Category.DisplayName, deref(t.LinkedAccountID))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d transactions\n", len(txs))
}

func printDetected(w io.Writer, accounts []domain.DetectedAccount, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tINSTITUTION\tKIND\tNUMBER\tLAST SEEN\tSENDERS")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Institution, a.Kind, a.AccountNumberSuffix,
			a.LastTransactionAt.In(loc).Format(timeLayout), strings.Join(a.ObservedSenderIDs, ","))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d accounts\n", len(accounts))
}

func printStored(w io.Writer, txs []domain.Transaction, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tAMOUNT\tCURRENCY\tCATEGORY\tACCOUNT")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Date.In(loc).Format(timeLayout), t.Description, t.Amount.StringFixed(2),
			t.Currency, t.CategoryName, deref(t.AccountID))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d transactions\n", len(txs))
}
