package enums

import (
	"fmt"
	"strings"
)

// QuestionKind is the closed set of answer shapes a questionnaire can ask for.
type QuestionKind string

const (
	QuestionKindText     QuestionKind = "text"
	QuestionKindDropdown QuestionKind = "dropdown"
	QuestionKindCheckbox QuestionKind = "checkbox"
	QuestionKindFile     QuestionKind = "file"
)

var validQuestionKinds = []QuestionKind{
	QuestionKindText,
	QuestionKindDropdown,
	QuestionKindCheckbox,
	QuestionKindFile,
}

// legacyQuestionKinds maps the admin form labels onto the closed set.
var legacyQuestionKinds = map[string]QuestionKind{
	"textbox":           QuestionKindText,
	"text box":          QuestionKindText,
	"input field":       QuestionKindText,
	"input":             QuestionKindText,
	"single-line-input": QuestionKindText,
	"drop down":         QuestionKindDropdown,
	"drop-down":         QuestionKindDropdown,
	"select":            QuestionKindDropdown,
	"check box":         QuestionKindCheckbox,
	"check-box":         QuestionKindCheckbox,
	"upload":            QuestionKindFile,
	"document":          QuestionKindFile,
}

// String implements fmt.Stringer.
func (k QuestionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known QuestionKind.
func (k QuestionKind) IsValid() bool {
	for _, candidate := range validQuestionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseQuestionKind converts raw input (canonical or legacy label, any case) into a QuestionKind.
func ParseQuestionKind(value string) (QuestionKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validQuestionKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if kind, ok := legacyQuestionKinds[normalized]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("invalid question kind %q", value)
}
