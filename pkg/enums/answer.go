package enums

import "fmt"

// AnswerOwnerKind identifies which aggregate owns an answer row.
type AnswerOwnerKind string

const (
	AnswerOwnerCartItem     AnswerOwnerKind = "cart_item"
	AnswerOwnerOrderItem    AnswerOwnerKind = "order_item"
	AnswerOwnerServiceQuote AnswerOwnerKind = "service_quote"
)

var validAnswerOwnerKinds = []AnswerOwnerKind{
	AnswerOwnerCartItem,
	AnswerOwnerOrderItem,
	AnswerOwnerServiceQuote,
}

// String implements fmt.Stringer.
func (k AnswerOwnerKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known AnswerOwnerKind.
func (k AnswerOwnerKind) IsValid() bool {
	for _, candidate := range validAnswerOwnerKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseAnswerOwnerKind converts raw input into an AnswerOwnerKind.
func ParseAnswerOwnerKind(value string) (AnswerOwnerKind, error) {
	for _, candidate := range validAnswerOwnerKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid answer owner kind %q", value)
}

// AnswerValueKind records whether the stored value is literal text or a file path.
type AnswerValueKind string

const (
	AnswerValueLiteral AnswerValueKind = "literal"
	AnswerValueFile    AnswerValueKind = "file"
)

// IsValid reports whether the value is a known AnswerValueKind.
func (k AnswerValueKind) IsValid() bool {
	return k == AnswerValueLiteral || k == AnswerValueFile
}
