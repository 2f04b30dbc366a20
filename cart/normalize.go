package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

const (
	defaultPrice    = "0"
	defaultCurrency = "USD"
)

var (
	errNotJSON  = errors.New("stored cart is not valid json")
	errNotArray = errors.New("stored cart is not an array")
)

// Normalized is the result of reading untrusted storage: either [Valid] or [Invalid].
type Normalized interface {
	normalized()
}

// Valid holds the entries that survived coercion, in stored order.
type Valid struct {
	Lines []Line
}

// Invalid reports that the stored document could not be used at all.
type Invalid struct {
	Reason error
}

func (Valid) normalized()   {}
func (Invalid) normalized() {}

// LinesOf maps a Normalized value to the cart it implies. Invalid always
// means an empty cart.
func LinesOf(n Normalized) []Line {
	if v, ok := n.(Valid); ok {
		return v.Lines
	}
	return []Line{}
}

// Normalize parses a stored cart document. Empty input is an empty, valid
// cart. Non-object entries are skipped, every field is coerced to its
// expected type, and entries without a variant id, product id, or positive
// quantity are dropped.
func Normalize(raw []byte) Normalized {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Valid{Lines: []Line{}}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Invalid{Reason: errNotJSON}
	}
	entries, ok := doc.([]any)
	if !ok {
		return Invalid{Reason: errNotArray}
	}

	lines := make([]Line, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		line := Line{
			VariantID:    coerceString(obj["variantId"], ""),
			ProductID:    coerceString(obj["productId"], ""),
			Title:        coerceString(obj["title"], ""),
			VariantTitle: optionalString(obj["variantTitle"]),
			Price:        coerceString(obj["price"], defaultPrice),
			CurrencyCode: coerceString(obj["currencyCode"], defaultCurrency),
			Quantity:     coerceQuantity(obj["quantity"]),
			Image:        optionalString(obj["image"]),
			Handle:       coerceString(obj["handle"], ""),
		}
		if line.VariantID == "" || line.ProductID == "" || line.Quantity <= 0 {
			continue
		}
		lines = append(lines, line)
	}
	return Valid{Lines: lines}
}

func coerceString(v any, fallback string) string {
	switch t := v.(type) {
	case nil:
		return fallback
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fallback
		}
		return string(b)
	}
}

// optionalString keeps only truthy values; empty strings, zero, false and
// null all collapse to "".
func optionalString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if !t {
			return ""
		}
	case float64:
		if t == 0 || math.IsNaN(t) {
			return ""
		}
	}
	return coerceString(v, "")
}

// coerceQuantity accepts only finite JSON numbers, clamps negatives to zero
// and truncates fractions.
func coerceQuantity(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
