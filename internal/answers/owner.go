package answers

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
)

// Owner is the single aggregate an answer belongs to.
type Owner struct {
	Kind enums.AnswerOwnerKind
	ID   uuid.UUID
}

func CartItem(id uuid.UUID) Owner {
	return Owner{Kind: enums.AnswerOwnerCartItem, ID: id}
}

func OrderItem(id uuid.UUID) Owner {
	return Owner{Kind: enums.AnswerOwnerOrderItem, ID: id}
}

func ServiceQuote(id uuid.UUID) Owner {
	return Owner{Kind: enums.AnswerOwnerServiceQuote, ID: id}
}

func (o Owner) Validate() error {
	if !o.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, "invalid answer owner kind").WithDetails(map[string]any{"kind": o.Kind})
	}
	if o.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "answer owner id is required")
	}
	return nil
}

// Value is either a literal string or a reference to a stored file.
type Value struct {
	Kind enums.AnswerValueKind
	Text string
}

func Literal(text string) Value {
	return Value{Kind: enums.AnswerValueLiteral, Text: text}
}

func FileRef(key string) Value {
	return Value{Kind: enums.AnswerValueFile, Text: key}
}

func (v Value) IsFile() bool {
	return v.Kind == enums.AnswerValueFile
}
