package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

// CreateService inserts a checkout service priced at price.
func CreateService(t testing.TB, db *gorm.DB, title, price string) models.Service {
	t.Helper()
	svc := models.Service{
		ID:    uuid.New(),
		Title: title,
		Price: decimal.RequireFromString(price),
		Type:  enums.ServiceTypeCheckout,
	}
	if err := db.Create(&svc).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}

// CreateQuestion attaches a question to serviceID at the next position.
func CreateQuestion(t testing.TB, db *gorm.DB, serviceID uuid.UUID, name string, kind enums.QuestionKind, options ...string) models.Questionnaire {
	t.Helper()
	var count int64
	if err := db.Model(&models.Questionnaire{}).Where("service_id = ?", serviceID).Count(&count).Error; err != nil {
		t.Fatalf("count questions: %v", err)
	}
	q := models.Questionnaire{
		ID:        uuid.New(),
		ServiceID: serviceID,
		Name:      name,
		Kind:      kind,
		Options:   pq.StringArray(options),
		Position:  int(count),
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func CreateDeliveryOption(t testing.TB, db *gorm.DB, serviceID uuid.UUID, label, price string) models.DeliveryOption {
	t.Helper()
	opt := models.DeliveryOption{
		ID:        uuid.New(),
		ServiceID: serviceID,
		Label:     label,
		Price:     decimal.RequireFromString(price),
	}
	if err := db.Create(&opt).Error; err != nil {
		t.Fatalf("create delivery option: %v", err)
	}
	return opt
}

func CreateRequiredDocument(t testing.TB, db *gorm.DB, serviceID uuid.UUID, title string) models.RequiredDocument {
	t.Helper()
	doc := models.RequiredDocument{ID: uuid.New(), ServiceID: serviceID, Title: title}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("create required document: %v", err)
	}
	return doc
}
