package answers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/internal/uploads"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/storage"
)

// Input is one client-supplied answer. For file questions Value is the key
// returned by the upload endpoint.
type Input struct {
	QuestionID uuid.UUID `json:"question_id"`
	Value      string    `json:"value"`
}

// UnmarshalJSON accepts questionary_id as another name for question_id.
// Unknown keys are still rejected.
func (in *Input) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionID    *uuid.UUID `json:"question_id"`
		QuestionaryID *uuid.UUID `json:"questionary_id"`
		Value         string     `json:"value"`
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}

	switch {
	case raw.QuestionID != nil && raw.QuestionaryID != nil && *raw.QuestionID != *raw.QuestionaryID:
		return pkgerrors.New(pkgerrors.CodeValidation, "question_id and questionary_id disagree").
			WithDetails(map[string]any{"questionary_id": "must match question_id"})
	case raw.QuestionID != nil:
		in.QuestionID = *raw.QuestionID
	case raw.QuestionaryID != nil:
		in.QuestionID = *raw.QuestionaryID
	default:
		in.QuestionID = uuid.Nil
	}
	in.Value = raw.Value
	return nil
}

// Resolved pairs a validated input with its question. Value is final for
// literals; for files it still names the source object.
type Resolved struct {
	Question models.Questionnaire
	Value    Value
}

var checkboxTruthy = map[string]string{
	"true": "true", "1": "true", "yes": "true", "on": "true",
	"false": "false", "0": "false", "no": "false", "off": "false",
}

// Resolve matches inputs against the service's questions. Inputs naming an
// unknown question, or one from another service, are dropped. Empty values are
// skipped. A later answer to the same question replaces an earlier one. Values
// that do not fit their question fail with VALIDATION_ERROR.
func Resolve(questions []models.Questionnaire, inputs []Input) ([]Resolved, error) {
	byID := make(map[uuid.UUID]models.Questionnaire, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	order := make([]uuid.UUID, 0, len(inputs))
	picked := make(map[uuid.UUID]Resolved, len(inputs))
	invalid := map[string]string{}

	for _, in := range inputs {
		question, ok := byID[in.QuestionID]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(in.Value)
		if raw == "" {
			continue
		}
		value, reason := normalize(question, raw)
		if reason != "" {
			invalid[question.ID.String()] = reason
			continue
		}
		if _, seen := picked[question.ID]; !seen {
			order = append(order, question.ID)
		}
		picked[question.ID] = Resolved{Question: question, Value: value}
	}

	if len(invalid) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid answers").WithDetails(map[string]any{"answers": invalid})
	}

	out := make([]Resolved, 0, len(order))
	for _, id := range order {
		out = append(out, picked[id])
	}
	return out, nil
}

func normalize(q models.Questionnaire, raw string) (Value, string) {
	switch q.Kind {
	case enums.QuestionKindText:
		return Literal(raw), ""
	case enums.QuestionKindDropdown:
		if len(q.Options) > 0 && !q.HasOption(raw) {
			return Value{}, "value is not one of the options"
		}
		return Literal(raw), ""
	case enums.QuestionKindCheckbox:
		if len(q.Options) == 0 {
			normalized, ok := checkboxTruthy[strings.ToLower(raw)]
			if !ok {
				if b, err := strconv.ParseBool(raw); err == nil {
					return Literal(strconv.FormatBool(b)), ""
				}
				return Value{}, "value must be true or false"
			}
			return Literal(normalized), ""
		}
		parts := strings.Split(raw, ",")
		selected := make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !q.HasOption(part) {
				return Value{}, "value is not one of the options"
			}
			selected = append(selected, part)
		}
		return Literal(strings.Join(selected, ",")), ""
	case enums.QuestionKindFile:
		key, err := storage.CleanKey(raw)
		if err != nil {
			return Value{}, "file reference is invalid"
		}
		if !storage.IsStagedKey(key) && !storage.IsDocumentKey(key) {
			return Value{}, "file must be uploaded first"
		}
		if !uploads.AllowedExtension(storage.Ext(key)) {
			return Value{}, "file type is not allowed"
		}
		return FileRef(key), ""
	default:
		return Value{}, "question kind is not supported"
	}
}
