package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/visadesk-backend/internal/checkout"
	"github.com/angelmondragon/visadesk-backend/internal/orders"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
	"github.com/angelmondragon/visadesk-backend/pkg/pagination"
)

type stubCheckoutService struct {
	checkout.Service
	input  *checkout.Input
	result *checkout.IntentResult
	err    error
}

func (s *stubCheckoutService) CreateIntent(ctx context.Context, userID uuid.UUID, input checkout.Input) (*checkout.IntentResult, error) {
	s.input = &input
	return s.result, s.err
}

type stubOrdersService struct {
	confirmation *orders.Confirmation
	order        *orders.OrderDTO
	page         pagination.Page[orders.OrderDTO]
	err          error

	confirmedIntent string
	confirmedBy     uuid.UUID
	gotRole         enums.UserRole
	gotStatus       *enums.OrderStatus
}

func (s *stubOrdersService) Confirm(ctx context.Context, paymentIntentID string) (*orders.Confirmation, error) {
	s.confirmedIntent = paymentIntentID
	return s.confirmation, s.err
}

func (s *stubOrdersService) ConfirmForUser(ctx context.Context, userID uuid.UUID, role enums.UserRole, paymentIntentID string) (*orders.Confirmation, error) {
	s.confirmedBy = userID
	s.gotRole = role
	return s.Confirm(ctx, paymentIntentID)
}

func (s *stubOrdersService) Complete(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, userID uuid.UUID, role enums.UserRole, orderID uuid.UUID) (*orders.OrderDTO, error) {
	s.gotRole = role
	return s.order, s.err
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[orders.OrderDTO], error) {
	return s.page, s.err
}

func (s *stubOrdersService) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) (pagination.Page[orders.OrderDTO], error) {
	s.gotStatus = status
	return s.page, s.err
}

func TestCheckoutCreateIntent(t *testing.T) {
	svc := &stubCheckoutService{result: &checkout.IntentResult{
		OrderID:         uuid.New(),
		Reference:       "VD-1234567",
		TotalAmount:     "105.00",
		Currency:        "usd",
		ClientSecret:    "pi_1_secret",
		PaymentIntentID: "pi_1",
	}}
	serviceID := uuid.New()
	body := `{"amount":"1.00","is_south_africa":true,"items":[{"service_id":"` + serviceID.String() + `","quantity":1}]}`

	handler := CheckoutCreateIntent(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/success", strings.NewReader(body)), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"client_secret":"pi_1_secret"`)
	require.NotNil(t, svc.input)
	require.Equal(t, "traveller@example.com", svc.input.Email)
	require.True(t, svc.input.IsSouthAfrica)
	require.Len(t, svc.input.Items, 1)
	require.Equal(t, serviceID, svc.input.Items[0].ServiceID)
}

func TestCheckoutCreateIntentRequiresItems(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := CheckoutCreateIntent(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/success", strings.NewReader(`{"items":[]}`)), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Nil(t, svc.input)
	env := decodeEnvelope(t, rec)
	require.Contains(t, env.Error.Details, "items")
}

func TestCheckoutCreateIntentGatewayMessage(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeGateway, "Your card was declined.")}
	body := `{"items":[{"service_id":"` + uuid.NewString() + `"}]}`
	handler := CheckoutCreateIntent(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/success", strings.NewReader(body)), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Equal(t, "Your card was declined.", env.Message)
}

func TestCheckoutConfirm(t *testing.T) {
	cases := []struct {
		name    string
		paid    bool
		message string
	}{
		{name: "paid", paid: true, message: "Payment confirmed"},
		{name: "pending", paid: false, message: "Payment pending"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrdersService{confirmation: &orders.Confirmation{Paid: tc.paid, GatewayStatus: "requires_action"}}
			handler := CheckoutConfirm(svc, nil)
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(`{"payment_intent_id":"pi_42"}`)), uuid.New(), enums.UserRoleCustomer)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Equal(t, "pi_42", svc.confirmedIntent)
			require.NotEqual(t, uuid.Nil, svc.confirmedBy)
			require.Equal(t, enums.UserRoleCustomer, svc.gotRole)
			require.Equal(t, tc.message, decodeEnvelope(t, rec).Message)
		})
	}
}

func TestCheckoutConfirmRequiresIntent(t *testing.T) {
	svc := &stubOrdersService{}
	handler := CheckoutConfirm(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(`{}`)), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Empty(t, svc.confirmedIntent)
}

func TestCheckoutConfirmForbiddenForOtherUsersOrder(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")}
	caller := uuid.New()
	handler := CheckoutConfirm(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/confirm", strings.NewReader(`{"payment_intent_id":"pi_victim"}`)), caller, enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, caller, svc.confirmedBy)
	env := decodeEnvelope(t, rec)
	require.False(t, env.Status)
	require.NotContains(t, rec.Body.String(), "user_id")
}

func TestCheckoutCreateIntentAcceptsLongFieldNames(t *testing.T) {
	svc := &stubCheckoutService{result: &checkout.IntentResult{OrderID: uuid.New()}}
	courier := uuid.New()
	questionID := uuid.New()
	body := `{"items":[{"service_id":"` + uuid.NewString() + `","delivery_details_ids":["` + courier.String() + `"],` +
		`"answers":[{"questionary_id":"` + questionID.String() + `","value":"Jane"}]}]}`

	handler := CheckoutCreateIntent(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/success", strings.NewReader(body)), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, svc.input.Items, 1)
	require.Equal(t, []uuid.UUID{courier}, svc.input.Items[0].DeliveryOptionIDs)
	require.Equal(t, questionID, svc.input.Items[0].Answers[0].QuestionID)
}
