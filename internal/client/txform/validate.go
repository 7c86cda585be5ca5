package txform

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rule identifies which validation check rejected a draft.
type Rule string

const (
	RuleRequired     Rule = "required"
	RuleAmount       Rule = "amount"
	RuleCardNumber   Rule = "card_number"
	RuleCVV          Rule = "cvv"
	RuleExpiration   Rule = "expiration"
	RuleBalance      Rule = "balance"
	RuleSelfTransfer Rule = "self_transfer"
)

// ValidationError is the first rule a draft failed. It never involves the
// network.
type ValidationError struct {
	Rule    Rule
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var expirationPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)

const cardPrefix = "9999"

// Validate checks draft for kind and returns the first failure. balance is
// the last known balance of the draft owner, or nil when none is known; now
// decides card expiry.
func Validate(kind Kind, d Draft, balance *decimal.Decimal, now time.Time) *ValidationError {
	switch kind {
	case Transfer:
		if strings.TrimSpace(d.SenderID) == "" {
			return &ValidationError{Rule: RuleRequired, Message: "sender id is required"}
		}
		if strings.TrimSpace(d.ReceiverID) == "" {
			return &ValidationError{Rule: RuleRequired, Message: "receiver id is required"}
		}
	default:
		if strings.TrimSpace(d.UserID) == "" {
			return &ValidationError{Rule: RuleRequired, Message: "user id is required"}
		}
	}

	if !d.Amount.IsPositive() {
		return &ValidationError{Rule: RuleAmount, Message: "amount must be greater than 0"}
	}

	if kind == Purchase {
		if err := validateCard(d, now); err != nil {
			return err
		}
	}

	if kind == Sell || kind == Transfer {
		if balance != nil && d.Amount.GreaterThan(*balance) {
			msg := "insufficient balance for this sale"
			if kind == Transfer {
				msg = "insufficient balance for this transfer"
			}
			return &ValidationError{Rule: RuleBalance, Message: msg}
		}
	}

	if kind == Transfer && d.SenderID == d.ReceiverID {
		return &ValidationError{Rule: RuleSelfTransfer, Message: "you cannot transfer tokens to yourself"}
	}

	return nil
}

func validateCard(d Draft, now time.Time) *ValidationError {
	if !strings.HasPrefix(d.CardNumber, cardPrefix) || len(d.CardNumber) != maxCardDigits || !allDigits(d.CardNumber) {
		return &ValidationError{Rule: RuleCardNumber, Message: "card number must start with 9999 and have 16 digits"}
	}

	if n := len(d.CVV); n < 3 || n > 4 || !allDigits(d.CVV) {
		return &ValidationError{Rule: RuleCVV, Message: "CVV must have 3 or 4 digits"}
	}

	if d.Expiration == "" {
		return &ValidationError{Rule: RuleExpiration, Message: "please enter the expiration date"}
	}
	m := expirationPattern.FindStringSubmatch(d.Expiration)
	if m == nil {
		return &ValidationError{Rule: RuleExpiration, Message: "expiration date must be in MM/YY format"}
	}
	month, _ := strconv.Atoi(m[1])
	yy, _ := strconv.Atoi(m[2])
	year := 2000 + yy

	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return &ValidationError{Rule: RuleExpiration, Message: "the card has expired"}
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
