package txform

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	maxCardDigits       = 16
	maxCVVDigits        = 4
	maxExpirationDigits = 4
)

// Draft is the not yet submitted content of a form. Kinds use only the
// fields listed by Kind.Fields.
type Draft struct {
	UserID     string
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
	CardNumber string
	Expiration string
	CVV        string
}

// Owner returns the identifier whose balance applies to this draft.
func (d Draft) Owner(k Kind) string {
	if k == Transfer {
		return d.SenderID
	}
	return d.UserID
}

func (d *Draft) set(f Field, raw string) {
	switch f {
	case FieldUserID:
		d.UserID = raw
	case FieldSenderID:
		d.SenderID = raw
	case FieldReceiverID:
		d.ReceiverID = raw
	case FieldAmount:
		d.Amount = ParseAmount(raw)
	case FieldCardNumber:
		d.CardNumber = NormalizeCardNumber(raw)
	case FieldExpiration:
		d.Expiration = NormalizeExpiration(raw)
	case FieldCVV:
		d.CVV = NormalizeCVV(raw)
	}
}

func (d Draft) get(f Field) string {
	switch f {
	case FieldUserID:
		return d.UserID
	case FieldSenderID:
		return d.SenderID
	case FieldReceiverID:
		return d.ReceiverID
	case FieldAmount:
		return d.Amount.String()
	case FieldCardNumber:
		return d.CardNumber
	case FieldExpiration:
		return d.Expiration
	case FieldCVV:
		return d.CVV
	}
	return ""
}

// clearPayment empties everything but the identifiers.
func (d *Draft) clearPayment() {
	d.Amount = decimal.Zero
	d.CardNumber = ""
	d.Expiration = ""
	d.CVV = ""
}

func digits(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		if b.Len() == limit {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeCardNumber keeps at most 16 digits.
func NormalizeCardNumber(raw string) string {
	return digits(raw, maxCardDigits)
}

// NormalizeCVV keeps at most 4 digits.
func NormalizeCVV(raw string) string {
	return digits(raw, maxCVVDigits)
}

// NormalizeExpiration keeps at most 4 digits and writes them as MM/YY,
// inserting the slash once more than two digits were typed.
func NormalizeExpiration(raw string) string {
	d := digits(raw, maxExpirationDigits)
	if len(d) <= 2 {
		return d
	}
	return d[:2] + "/" + d[2:]
}

// ParseAmount reads a decimal amount. Anything unparsable is zero.
func ParseAmount(raw string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return v
}

// FormatCard groups card digits in blocks of four.
func FormatCard(number string) string {
	var b strings.Builder
	for i, r := range number {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
