package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/visadesk-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
)

// DeliverySelection is a validated, de-duplicated set of delivery options for one service.
type DeliverySelection struct {
	IDs     dbtypes.UUIDArray
	Options []models.DeliveryOption
}

// Total sums the selected option prices.
func (d DeliverySelection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, opt := range d.Options {
		total = total.Add(opt.Price)
	}
	return total
}

// DeliveryLookup loads delivery options by id.
type DeliveryLookup interface {
	FindDeliveryOptionsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.DeliveryOption, error)
}

// ResolveDelivery checks every id belongs to serviceID. Duplicates collapse to
// one entry; foreign or unknown ids are a validation error.
func ResolveDelivery(ctx context.Context, repo DeliveryLookup, serviceID uuid.UUID, ids []uuid.UUID) (DeliverySelection, error) {
	unique := dbtypes.NewUUIDArray(ids)
	if len(unique) == 0 {
		return DeliverySelection{IDs: dbtypes.UUIDArray{}}, nil
	}
	rows, err := repo.FindDeliveryOptionsByIDs(ctx, unique)
	if err != nil {
		return DeliverySelection{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load delivery options")
	}
	byID := make(map[uuid.UUID]models.DeliveryOption, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	selection := DeliverySelection{IDs: unique, Options: make([]models.DeliveryOption, 0, len(unique))}
	var invalid []string
	for _, id := range unique {
		opt, ok := byID[id]
		if !ok || opt.ServiceID != serviceID {
			invalid = append(invalid, id.String())
			continue
		}
		selection.Options = append(selection.Options, opt)
	}
	if len(invalid) > 0 {
		return DeliverySelection{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery option does not belong to service").
			WithDetails(map[string]any{"service_id": serviceID, "delivery_option_ids": invalid})
	}
	return selection, nil
}
