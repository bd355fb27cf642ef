package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/smsledger/internal/domain"
)

// transactionNamespace scopes the deterministic transaction ids derived from
// source hashes.
var transactionNamespace = uuid.MustParse("3f1b6c2e-8d4a-4e49-9a57-6a0f0c2b7d11")

const maxDescriptionLen = 140

// CategoryResolver maps the static parser categories onto the caller's
// category registry.
type CategoryResolver struct {
	byID   map[string]string // normalized id -> registry id
	byName map[string]string // normalized name -> registry id
}

// NewCategoryResolver indexes categories by id and by name.
func NewCategoryResolver(categories []domain.Category) *CategoryResolver {
	r := &CategoryResolver{
		byID:   make(map[string]string, len(categories)),
		byName: make(map[string]string, len(categories)),
	}
	for _, c := range categories {
		if c.ID == "" {
			continue
		}
		r.byID[normalizeCategory(c.ID)] = c.ID
		if c.Name != "" {
			r.byName[normalizeCategory(c.Name)] = c.ID
		}
	}
	return r
}

// Resolve returns the registry id for ref, matching by id first and display
// name second. Unknown refs keep their own id.
func (r *CategoryResolver) Resolve(ref domain.CategoryRef) string {
	if id, ok := r.byID[normalizeCategory(ref.ID)]; ok {
		return id
	}
	if id, ok := r.byName[normalizeCategory(ref.DisplayName)]; ok {
		return id
	}
	return ref.ID
}

// normalizeCategory makes "Food Dining", "food-dining" and " FOOD DINING "
// compare equal.
func normalizeCategory(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(name, "-", " ")), " "))
}

// ConvertTransactions maps parsed transactions into storage records. Debits
// and transfers become negative amounts, credits positive.
func ConvertTransactions(parsed []domain.ParsedTransaction, categories []domain.Category, currency string) []domain.Transaction {
	if currency == "" {
		currency = DefaultCurrency
	}
	resolver := NewCategoryResolver(categories)

	out := make([]domain.Transaction, 0, len(parsed))
	for _, p := range parsed {
		hash := SourceHash(p.Sender, p.Timestamp.UnixMilli(), p.RawBody)
		amount := p.Amount
		if p.Direction != domain.DirectionCredit {
			amount = amount.Neg()
		}
		out = append(out, domain.Transaction{
			ID:           uuid.NewSHA1(transactionNamespace, []byte(hash)).String(),
			AccountID:    p.LinkedAccountID,
			Date:         p.Timestamp,
			Description:  describe(p),
			Amount:       amount,
			Currency:     currency,
			BalanceAfter: p.Balance,
			Direction:    p.Direction,
			MerchantName: p.MerchantName,
			CategoryID:   resolver.Resolve(p.Category),
			CategoryName: p.Category.DisplayName,
			Sender:       p.Sender,
			RawBody:      p.RawBody,
			SourceHash:   hash,
		})
	}
	return out
}

// SourceHash identifies a message independently of the scan that read it.
func SourceHash(sender string, timestampMillis int64, body string) string {
	sum := sha256.Sum256([]byte(sender + "|" + strconv.FormatInt(timestampMillis, 10) + "|" + body))
	return hex.EncodeToString(sum[:])
}

func describe(p domain.ParsedTransaction) string {
	if p.MerchantName != nil && *p.MerchantName != "" {
		return *p.MerchantName
	}
	body := strings.Join(strings.Fields(p.RawBody), " ")
	if r := []rune(body); len(r) > maxDescriptionLen {
		return string(r[:maxDescriptionLen])
	}
	return body
}
