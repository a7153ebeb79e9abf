package answers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
	"github.com/angelmondragon/visadesk-backend/pkg/storage"
)

// KeyFunc names the final object for a file answer.
type KeyFunc func(questionID uuid.UUID, ext string) string

// CartUploadKeys places files under the time-prefixed cart uploads folder.
func CartUploadKeys(now time.Time) KeyFunc {
	return func(_ uuid.UUID, ext string) string {
		return storage.CartUploadKey(now, uuid.New(), ext)
	}
}

// QuoteUploadKeys places files under the time-prefixed quote uploads folder.
func QuoteUploadKeys(now time.Time) KeyFunc {
	return func(_ uuid.UUID, ext string) string {
		return storage.QuoteUploadKey(now, uuid.New(), ext)
	}
}

// OrderItemKeys is deterministic per order item and question.
func OrderItemKeys(orderID, orderItemID uuid.UUID) KeyFunc {
	return func(questionID uuid.UUID, ext string) string {
		return storage.OrderAnswerKey(orderID, orderItemID, questionID, ext)
	}
}

// View is the read model returned to clients.
type View struct {
	ID              uuid.UUID             `json:"id"`
	QuestionnaireID uuid.UUID             `json:"questionnaire_id"`
	Question        string                `json:"question,omitempty"`
	ValueKind       enums.AnswerValueKind `json:"value_kind"`
	Value           string                `json:"value"`
	FileURL         *string               `json:"file_url,omitempty"`
}

type questionLookup interface {
	FindQuestionnairesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Questionnaire, error)
}

// Service stores answers and the files they reference.
type Service interface {
	// Persist writes resolved answers for owner inside tx. Staged files are
	// moved and already stored documents are copied to keys(question, ext).
	Persist(ctx context.Context, tx *gorm.DB, userID uuid.UUID, owner Owner, resolved []Resolved, keys KeyFunc) ([]models.Answer, error)
	// Purge deletes files then answer rows for every owner id.
	Purge(ctx context.Context, tx *gorm.DB, kind enums.AnswerOwnerKind, ownerIDs []uuid.UUID) error
	ListByOwners(ctx context.Context, kind enums.AnswerOwnerKind, ownerIDs []uuid.UUID) (map[uuid.UUID][]View, error)
}

type service struct {
	repo      *Repository
	questions questionLookup
	store     storage.Store
	logg      *logger.Logger
}

func NewService(repo *Repository, questions questionLookup, store storage.Store, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("answers repository required")
	}
	if questions == nil {
		return nil, fmt.Errorf("question lookup required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, questions: questions, store: store, logg: logg}, nil
}

func (s *service) Persist(ctx context.Context, tx *gorm.DB, userID uuid.UUID, owner Owner, resolved []Resolved, keys KeyFunc) ([]models.Answer, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, nil
	}

	repo := s.repo.WithTx(tx)
	rows := make([]models.Answer, 0, len(resolved))
	for _, res := range resolved {
		value := res.Value
		if value.IsFile() {
			if keys == nil {
				return nil, pkgerrors.New(pkgerrors.CodeInternal, "file destination required")
			}
			if err := s.authorizeSource(ctx, repo, userID, value.Text); err != nil {
				return nil, err
			}
			dst := keys(res.Question.ID, storage.Ext(value.Text))
			if err := s.place(ctx, value.Text, dst); err != nil {
				return nil, err
			}
			value = FileRef(dst)
		}
		rows = append(rows, models.Answer{
			ID:              uuid.New(),
			UserID:          userID,
			OwnerType:       owner.Kind,
			OwnerID:         owner.ID,
			QuestionnaireID: res.Question.ID,
			ValueKind:       value.Kind,
			Value:           value.Text,
		})
	}

	if err := repo.Create(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "store answers")
	}
	return rows, nil
}

// authorizeSource accepts staged uploads from the caller's own folder and
// stored documents the caller already answered with.
func (s *service) authorizeSource(ctx context.Context, repo *Repository, userID uuid.UUID, src string) error {
	if storage.IsStagedKeyFor(src, userID) {
		return nil
	}
	if storage.IsDocumentKey(src) && userID != uuid.Nil {
		owned, err := repo.OwnsFile(ctx, userID, src)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "check file owner")
		}
		if owned {
			return nil
		}
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "file": src}), "answer file not owned by caller")
	return pkgerrors.New(pkgerrors.CodeForbidden, "file does not belong to the caller").WithDetails(map[string]any{"file": src})
}

func (s *service) place(ctx context.Context, src, dst string) error {
	var err error
	if storage.IsStagedKey(src) {
		err = s.store.Move(ctx, src, dst)
	} else {
		err = s.store.Copy(ctx, src, dst)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeValidation, "uploaded file not found").WithDetails(map[string]any{"file": src})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store answer file")
}

func (s *service) Purge(ctx context.Context, tx *gorm.DB, kind enums.AnswerOwnerKind, ownerIDs []uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if len(ownerIDs) == 0 {
		return nil
	}
	repo := s.repo.WithTx(tx)
	rows, err := repo.ListByOwners(ctx, kind, ownerIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load answers")
	}

	var fileErr error
	for _, row := range rows {
		if row.ValueKind != enums.AnswerValueFile {
			continue
		}
		fileErr = multierr.Append(fileErr, s.store.Delete(ctx, row.Value))
	}
	if fileErr != nil {
		s.logg.Error(s.logg.WithField(ctx, "owner_type", kind.String()), "answer file cleanup failed", fileErr)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fileErr, "delete answer files")
	}

	if _, err := repo.DeleteByOwners(ctx, kind, ownerIDs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete answers")
	}
	return nil
}

func (s *service) ListByOwners(ctx context.Context, kind enums.AnswerOwnerKind, ownerIDs []uuid.UUID) (map[uuid.UUID][]View, error) {
	out := make(map[uuid.UUID][]View, len(ownerIDs))
	rows, err := s.repo.ListByOwners(ctx, kind, ownerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load answers")
	}
	if len(rows) == 0 {
		return out, nil
	}

	questionIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		questionIDs = append(questionIDs, row.QuestionnaireID)
	}
	questions, err := s.questions.FindQuestionnairesByIDs(ctx, questionIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load questions")
	}
	names := make(map[uuid.UUID]string, len(questions))
	for _, q := range questions {
		names[q.ID] = q.Name
	}

	for _, row := range rows {
		view := View{
			ID:              row.ID,
			QuestionnaireID: row.QuestionnaireID,
			Question:        names[row.QuestionnaireID],
			ValueKind:       row.ValueKind,
			Value:           row.Value,
		}
		if row.ValueKind == enums.AnswerValueFile {
			url := s.store.URL(row.Value)
			view.FileURL = &url
		}
		out[row.OwnerID] = append(out[row.OwnerID], view)
	}
	return out, nil
}
