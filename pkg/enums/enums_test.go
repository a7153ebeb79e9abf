package enums

import "testing"

func TestParseQuestionKindAcceptsLegacyLabels(t *testing.T) {
	cases := map[string]QuestionKind{
		"text":              QuestionKindText,
		"Textbox":           QuestionKindText,
		"Input field":       QuestionKindText,
		"single-line-input": QuestionKindText,
		"Drop down":         QuestionKindDropdown,
		"dropdown":          QuestionKindDropdown,
		"Check box":         QuestionKindCheckbox,
		"FILE":              QuestionKindFile,
	}
	for raw, want := range cases {
		got, err := ParseQuestionKind(raw)
		if err != nil {
			t.Fatalf("ParseQuestionKind(%q) unexpected error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseQuestionKind(%q) = %q want %q", raw, got, want)
		}
	}
	if _, err := ParseQuestionKind("signature"); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
}

func TestCheckoutStateTransitions(t *testing.T) {
	if !CheckoutStateDraft.CanTransition(CheckoutStateIntentCreated) {
		t.Fatalf("draft -> intent_created should be allowed")
	}
	if CheckoutStateDraft.CanTransition(CheckoutStateOrderRecorded) {
		t.Fatalf("draft cannot skip to order_recorded")
	}
	if !CheckoutStateOrderRecorded.CanTransition(CheckoutStateFailed) {
		t.Fatalf("any open state may fail")
	}
	if CheckoutStateConfirmed.CanTransition(CheckoutStateFailed) {
		t.Fatalf("confirmed is terminal")
	}
}

func TestOrderStatusSettled(t *testing.T) {
	if OrderStatusPending.IsSettled() {
		t.Fatalf("pending is not settled")
	}
	if !OrderStatusPaid.IsSettled() || !OrderStatusCompleted.IsSettled() {
		t.Fatalf("paid and completed are settled")
	}
	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}
