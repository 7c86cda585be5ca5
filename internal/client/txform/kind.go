package txform

import "fmt"

// Kind selects the remote operation a form submits to.
type Kind int

const (
	Purchase Kind = iota + 1
	Sell
	Transfer
)

func (k Kind) String() string {
	switch k {
	case Purchase:
		return "purchase"
	case Sell:
		return "sell"
	case Transfer:
		return "transfer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field names an editable input of a draft.
type Field string

const (
	FieldUserID     Field = "user"
	FieldSenderID   Field = "sender"
	FieldReceiverID Field = "receiver"
	FieldAmount     Field = "amount"
	FieldCardNumber Field = "card"
	FieldExpiration Field = "expiration"
	FieldCVV        Field = "cvv"
)

// Fields lists the inputs of kind in the order they are asked for.
func (k Kind) Fields() []Field {
	switch k {
	case Purchase:
		return []Field{FieldUserID, FieldAmount, FieldCardNumber, FieldExpiration, FieldCVV}
	case Sell:
		return []Field{FieldUserID, FieldAmount}
	case Transfer:
		return []Field{FieldSenderID, FieldReceiverID, FieldAmount}
	default:
		return nil
	}
}

// OwnerField is the field holding the user whose balance the form shows.
func (k Kind) OwnerField() Field {
	if k == Transfer {
		return FieldSenderID
	}
	return FieldUserID
}

func (k Kind) has(f Field) bool {
	for _, x := range k.Fields() {
		if x == f {
			return true
		}
	}
	return false
}

func (k Kind) successMessage() string {
	switch k {
	case Purchase:
		return "payment processed successfully"
	case Sell:
		return "token sale processed successfully"
	default:
		return "transfer processed successfully"
	}
}

func (k Kind) failureMessage() string {
	switch k {
	case Purchase:
		return "payment processing failed, please try again"
	case Sell:
		return "sale failed, please try again"
	default:
		return "transfer failed, please try again"
	}
}
