package parser

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dvloznov/smsledger/internal/domain"
)

const (
	DefaultIncomeCategoryID  = "other-income"
	DefaultExpenseCategoryID = "other-expense"
	TransferCategoryID       = "transfer"
)

// categoryRule maps a category id to the keywords that select it.
// Rules are matched in declaration order.
type categoryRule struct {
	id       string
	icon     string
	keywords []string
}

var incomeRules = []categoryRule{
	{"salary", "briefcase", []string{"salary", "payroll", "wages"}},
	{"refund", "undo", []string{"refund", "reversal", "reversed"}},
	{"cashback", "percent", []string{"cashback", "cash back"}},
	{"interest", "bank", []string{"interest"}},
	{"dividend", "chart-line", []string{"dividend"}},
	{"rewards", "gift", []string{"reward", "bonus"}},
}

var expenseRules = []categoryRule{
	{"shopping", "shopping-bag", []string{"amazon", "flipkart", "myntra", "ajio", "meesho", "nykaa", "shopping"}},
	{"food-dining", "utensils", []string{"swiggy", "zomato", "restaurant", "dominos", "pizza", "mcdonald", "starbucks", "cafe"}},
	{"groceries", "shopping-cart", []string{"bigbasket", "blinkit", "zepto", "grofers", "grocery", "dmart", "supermarket"}},
	{"transport", "car", []string{"uber", "olacabs", "ola cabs", "rapido", "petrol", "fuel", "fastag", "parking"}},
	{"travel", "plane", []string{"irctc", "makemytrip", "goibibo", "cleartrip", "indigo", "airline", "flight", "hotel"}},
	{"bills-utilities", "file-invoice", []string{"electricity", "recharge", "broadband", "airtel", "vodafone", "jio", "bill"}},
	{"entertainment", "film", []string{"netflix", "spotify", "hotstar", "prime video", "bookmyshow", "movie", "youtube"}},
	{"health", "heartbeat", []string{"pharmacy", "apollo", "medplus", "hospital", "clinic", "medical", "netmeds"}},
	{"education", "graduation-cap", []string{"tuition", "school fee", "college", "udemy", "coursera"}},
	{"rent", "home", []string{"house rent", "rental", "landlord", "nobroker"}},
	{"loan-emi", "hand-holding-usd", []string{"loan", "emi payment", "emi of"}},
	{"investment", "chart-pie", []string{"mutual fund", "zerodha", "groww", "sip installment"}},
	{"insurance", "shield", []string{"insurance", "policy premium"}},
	{"cash-withdrawal", "money-bill", []string{"atm withdrawal", "at atm", "cash withdrawal", "atm wdl"}},
}

var (
	incomeCategories  = buildCategoryRefs(incomeRules)
	expenseCategories = buildCategoryRefs(expenseRules)

	defaultIncome  = newCategoryRef(DefaultIncomeCategoryID, "wallet")
	defaultExpense = newCategoryRef(DefaultExpenseCategoryID, "receipt")
	transferRef    = newCategoryRef(TransferCategoryID, "exchange-alt")
)

// FindCategory returns the first category whose keywords occur in body.
// Credits use the income table and debits the expense table; transfers always
// get the transfer category. Without a keyword hit the direction's default
// category is returned.
func FindCategory(body string, direction domain.Direction) domain.CategoryRef {
	s := strings.ToLower(body)
	switch direction {
	case domain.DirectionTransfer:
		return transferRef
	case domain.DirectionCredit:
		return firstCategory(s, incomeRules, incomeCategories, defaultIncome)
	default:
		return firstCategory(s, expenseRules, expenseCategories, defaultExpense)
	}
}

// Categories lists the whole static vocabulary: income, expense, then the
// defaults and the transfer category.
func Categories() []domain.CategoryRef {
	out := make([]domain.CategoryRef, 0, len(incomeCategories)+len(expenseCategories)+3)
	out = append(out, incomeCategories...)
	out = append(out, expenseCategories...)
	return append(out, defaultIncome, defaultExpense, transferRef)
}

func firstCategory(s string, rules []categoryRule, refs []domain.CategoryRef, fallback domain.CategoryRef) domain.CategoryRef {
	for i, rule := range rules {
		if containsAny(s, rule.keywords) {
			return refs[i]
		}
	}
	return fallback
}

func buildCategoryRefs(rules []categoryRule) []domain.CategoryRef {
	refs := make([]domain.CategoryRef, len(rules))
	for i, rule := range rules {
		refs[i] = newCategoryRef(rule.id, rule.icon)
	}
	return refs
}

func newCategoryRef(id, icon string) domain.CategoryRef {
	return domain.CategoryRef{ID: id, DisplayName: DisplayName(id), IconToken: icon}
}

// DisplayName derives a category label from its id: "food-dining" → "Food Dining".
func DisplayName(id string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(id, "-", " "))
}
