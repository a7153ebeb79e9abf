package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/visadesk-backend/internal/answers"
	"github.com/angelmondragon/visadesk-backend/internal/cart"
	"github.com/angelmondragon/visadesk-backend/internal/catalog"
	"github.com/angelmondragon/visadesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
)

// pricedLine is a validated checkout item with prices locked from the catalog.
type pricedLine struct {
	service  models.Service
	quantity int
	delivery catalog.DeliverySelection
	answers  []answers.Resolved
	subtotal decimal.Decimal
}

// priceLines re-fetches every service and validates each item before any write.
func (s *service) priceLines(ctx context.Context, items []ItemInput) ([]pricedLine, decimal.Decimal, error) {
	lines := make([]pricedLine, 0, len(items))
	total := decimal.Zero
	for i, item := range items {
		quantity, ok := cart.ValidateQuantity(item.Quantity)
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{fmt.Sprintf("items.%d.quantity", i): *item.Quantity})
		}
		svc, err := s.catalog.GetService(ctx, item.ServiceID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		selection, err := catalog.ResolveDelivery(ctx, s.delivery, svc.ID, item.DeliveryOptionIDs)
		if err != nil {
			return nil, decimal.Zero, err
		}
		questions, err := s.catalog.ListQuestionnaires(ctx, svc.ID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		resolved, err := answers.Resolve(questions, item.Answers)
		if err != nil {
			return nil, decimal.Zero, err
		}

		subtotal := cart.LineSubtotal(svc.Price, quantity, selection.Total())
		total = total.Add(subtotal)
		lines = append(lines, pricedLine{
			service:  *svc,
			quantity: quantity,
			delivery: selection,
			answers:  resolved,
			subtotal: subtotal,
		})
	}
	return lines, total.Round(2), nil
}
