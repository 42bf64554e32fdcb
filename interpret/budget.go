package interpret

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tbxark/mediaplan/types"
)

const (
	Crore = 10_000_000
	Lakh  = 100_000
)

var (
	magnitudePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(crores?|cr|lakhs?|lacs?)\b`)
	magnitudeWord    = regexp.MustCompile(`(?i)\b(crores?|cr|lakhs?|lacs?)\b`)
)

// Budget is a negotiated budget ready to be stored in user inputs.
type Budget struct {
	Display  string
	Value    float64
	Currency string
	Symbol   string
}

// Apply stores the budget in u.
func (b Budget) Apply(u *types.UserInputs) {
	v := b.Value
	u.Budget = b.Display
	u.BudgetValue = &v
	u.Currency = b.Currency
	u.CurrencySymbol = b.Symbol
}

// FallbackBudget recognises "<N> crore(s)|cr" and "<N> lakh(s)|lac(s)"
// in a raw utterance without calling the model.
func FallbackBudget(utterance string) (*BudgetExtraction, bool) {
	m := magnitudePattern.FindStringSubmatch(utterance)
	if m == nil {
		return nil, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, false
	}
	unit := strings.ToLower(m[2])
	multiplier := float64(Lakh)
	word := "lakhs"
	if strings.HasPrefix(unit, "cr") {
		multiplier = Crore
		word = "crores"
	}
	converted := n * multiplier
	return &BudgetExtraction{
		Amount:                 ptr(n),
		Currency:               ptr("rupees"),
		CurrencySymbol:         ptr("₹"),
		Period:                 ptr("monthly"),
		OriginalFormat:         ptr(types.FormatAmount(n) + " " + word),
		ConvertedStandardValue: ptr(converted),
	}, true
}

// ResolveBudget applies currency normalization to the raw fields of a
// budget answer. Crore and lakh wording is kept for display while the value
// is expanded with the magnitude constants. Any other amount passes through
// with its symbol, guessing "$" when none was given.
func ResolveBudget(amount *float64, currency, symbol, originalFormat *string, converted *float64) (Budget, bool) {
	original := strings.TrimSpace(deref(originalFormat))
	sym := strings.TrimSpace(deref(symbol))
	cur := strings.TrimSpace(deref(currency))

	if multiplier, ok := magnitudeOf(original); ok {
		var value float64
		switch {
		case amount != nil && *amount > 0 && *amount < multiplier:
			value = *amount * multiplier
		case amount != nil && *amount >= multiplier:
			value = *amount
		case converted != nil && *converted > 0:
			value = *converted
		default:
			return Budget{}, false
		}
		if sym == "" {
			sym = "₹"
		}
		if cur == "" {
			cur = "rupees"
		}
		return Budget{Display: original, Value: value, Currency: cur, Symbol: sym}, true
	}

	if amount == nil || *amount <= 0 {
		return Budget{}, false
	}
	if sym == "" {
		sym = "$"
	}
	if cur == "" {
		cur = "dollars"
		if sym == "₹" {
			cur = "rupees"
		}
	}
	return Budget{
		Display:  sym + types.FormatAmount(*amount),
		Value:    *amount,
		Currency: cur,
		Symbol:   sym,
	}, true
}

// magnitudeOf finds a standalone crore or lakh word in text.
func magnitudeOf(text string) (float64, bool) {
	m := magnitudeWord.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	if strings.HasPrefix(strings.ToLower(m[1]), "cr") {
		return Crore, true
	}
	return Lakh, true
}
