package parser

import "strings"

// Institution is a bank or card issuer recognised from a sender id.
type Institution struct {
	Code string // substring searched for in the upper-cased sender id
	Name string
	Slug string // prefix of derived account ids
}

// Codes are tried in order; the first one contained in the sender wins.
var institutions = []Institution{
	{Code: "HDFC", Name: "HDFC Bank", Slug: "hdfc"},
	{Code: "ICICI", Name: "ICICI Bank", Slug: "icici"},
	{Code: "AXIS", Name: "Axis Bank", Slug: "axis"},
	{Code: "KOTAK", Name: "Kotak Mahindra Bank", Slug: "kotak"},
	{Code: "IDFC", Name: "IDFC First Bank", Slug: "idfc"},
	{Code: "INDUS", Name: "IndusInd Bank", Slug: "indusind"},
	{Code: "YESBNK", Name: "Yes Bank", Slug: "yes"},
	{Code: "AMEX", Name: "American Express", Slug: "amex"},
	{Code: "SBI", Name: "State Bank of India", Slug: "sbi"},
	{Code: "SCB", Name: "Standard Chartered", Slug: "scb"},
	{Code: "IOB", Name: "Indian Overseas Bank", Slug: "iob"},
	{Code: "PNB", Name: "Punjab National Bank", Slug: "pnb"},
}

// LookupInstitution finds the institution whose code appears in sender,
// e.g. "HD-HDFCBK-S" → HDFC Bank.
func LookupInstitution(sender string) (Institution, bool) {
	s := strings.ToUpper(sender)
	for _, inst := range institutions {
		if strings.Contains(s, inst.Code) {
			return inst, true
		}
	}
	return Institution{}, false
}

// Institutions returns a copy of the known institution table.
func Institutions() []Institution {
	out := make([]Institution, len(institutions))
	copy(out, institutions)
	return out
}
