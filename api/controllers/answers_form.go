package controllers

import (
	"context"
	"mime/multipart"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/angelmondragon/visadesk-backend/api/validators"
	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/uploads"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
)

type fileStager interface {
	Stage(ctx context.Context, userID uuid.UUID, input uploads.StageInput) (*uploads.Staged, error)
}

// formAnswers reads answers[<question_id>] fields. File parts are staged
// first and answered with their staged path, the same value a JSON client
// sends after calling the upload endpoint.
func formAnswers(ctx context.Context, stager fileStager, userID uuid.UUID, form *multipart.Form) ([]answers.Input, error) {
	values, files, err := validators.FormAnswers(form)
	if err != nil {
		return nil, err
	}
	for questionID, header := range files {
		if stager == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable")
		}
		file, err := header.Open()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open upload")
		}
		staged, err := stager.Stage(ctx, userID, uploads.StageInput{
			Filename: header.Filename,
			Size:     header.Size,
			Body:     file,
		})
		file.Close()
		if err != nil {
			return nil, err
		}
		values[questionID] = staged.Path
	}

	out := make([]answers.Input, 0, len(values))
	for questionID, value := range values {
		out = append(out, answers.Input{QuestionID: questionID, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionID.String() < out[j].QuestionID.String()
	})
	return out, nil
}

// formDeliveryIDs reads delivery_details_ids and the shorter delivery_ids.
func formDeliveryIDs(form *multipart.Form) ([]uuid.UUID, error) {
	raw := append(validators.FormValues(form, "delivery_details_ids"), validators.FormValues(form, "delivery_ids")...)
	return validators.ParseUUIDs("delivery_details_ids", raw)
}

// deliveryIDs joins both JSON spellings. Duplicates are dropped when the
// selection is resolved.
func deliveryIDs(details, short []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(details)+len(short))
	return append(append(out, details...), short...)
}

// formQuantity returns nil when the field is absent so the default applies downstream.
func formQuantity(form *multipart.Form) (*int, error) {
	raw := validators.FormValue(form, "quantity")
	if raw == "" {
		return nil, nil
	}
	quantity, err := strconv.Atoi(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity").WithDetails(map[string]any{"quantity": "must be an integer"})
	}
	return &quantity, nil
}
