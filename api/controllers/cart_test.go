package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/visadesk-backend/internal/cart"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/visadesk-backend/pkg/errors"
)

type stubCartService struct {
	view      *cart.CartView
	err       error
	added     *cart.AddItemInput
	updatedTo int
	cleared   bool
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*cart.CartView, error) {
	return s.view, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.AddItemInput) (*cart.ItemView, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.added = &input
	return &cart.ItemView{ID: uuid.New(), Quantity: 1}, nil
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.ItemView, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updatedTo = quantity
	return &cart.ItemView{ID: itemID, Quantity: quantity}, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func (s *stubCartService) Requirements(ctx context.Context, userID uuid.UUID) ([]cart.ItemRequirements, error) {
	return []cart.ItemRequirements{}, s.err
}

func TestCartGetEmpty(t *testing.T) {
	handler := CartGet(&stubCartService{}, nil)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Status)
	require.Equal(t, "Cart is empty", env.Message)
	require.Equal(t, "null", string(env.Data))
}

func TestCartGetReturnsView(t *testing.T) {
	userID := uuid.New()
	handler := CartGet(&stubCartService{view: &cart.CartView{CartID: uuid.New(), UserID: userID, GrandTotal: "105.00"}}, nil)
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), userID, enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"grand_total":"105.00"`)
}

func TestCartAddJSON(t *testing.T) {
	svc := &stubCartService{}
	serviceID := uuid.New()
	questionID := uuid.New()
	body := `{"service_id":"` + serviceID.String() + `","quantity":2,"answers":[{"question_id":"` + questionID.String() + `","value":"Yes"}]}`

	handler := CartAdd(svc, &stubStager{}, 1024, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(body)), uuid.New(), enums.UserRoleCustomer)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, svc.added)
	require.Equal(t, serviceID, svc.added.ServiceID)
	require.Equal(t, 2, *svc.added.Quantity)
	require.Len(t, svc.added.Answers, 1)
	require.Equal(t, "Yes", svc.added.Answers[0].Value)
}

func TestCartAddMultipartStagesFiles(t *testing.T) {
	svc := &stubCartService{}
	stager := &stubStager{}
	serviceID := uuid.New()
	textQuestion := uuid.New()
	fileQuestion := uuid.New()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("service_id", serviceID.String()))
	require.NoError(t, writer.WriteField("answers["+textQuestion.String()+"]", "Jane"))
	part, err := writer.CreateFormFile("answers["+fileQuestion.String()+"]", "passport.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	handler := CartAdd(svc, stager, 1<<20, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", &buf), uuid.New(), enums.UserRoleCustomer)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, stager.calls, 1)
	require.Equal(t, "passport.pdf", stager.calls[0].Filename)
	require.Nil(t, svc.added.Quantity)

	values := map[uuid.UUID]string{}
	for _, answer := range svc.added.Answers {
		values[answer.QuestionID] = answer.Value
	}
	require.Equal(t, "Jane", values[textQuestion])
	require.Equal(t, "uploads/tmp/passport.pdf", values[fileQuestion])
}

func TestCartAddJSONAcceptsLongFieldNames(t *testing.T) {
	svc := &stubCartService{}
	serviceID := uuid.New()
	questionID := uuid.New()
	courier := uuid.New()
	sameDay := uuid.New()
	body := `{"service_id":"` + serviceID.String() + `",` +
		`"delivery_details_ids":["` + courier.String() + `"],` +
		`"delivery_ids":["` + sameDay.String() + `"],` +
		`"answers":[{"questionary_id":"` + questionID.String() + `","value":"x"}]}`

	handler := CartAdd(svc, &stubStager{}, 1024, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(body)), uuid.New(), enums.UserRoleCustomer)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, []uuid.UUID{courier, sameDay}, svc.added.DeliveryOptionIDs)
	require.Len(t, svc.added.Answers, 1)
	require.Equal(t, questionID, svc.added.Answers[0].QuestionID)
	require.Equal(t, "x", svc.added.Answers[0].Value)
}

func TestCartAddMultipartAcceptsBothDeliveryFields(t *testing.T) {
	courier := uuid.New()
	sameDay := uuid.New()
	cases := map[string][]uuid.UUID{
		"delivery_details_ids": {courier},
		"delivery_ids":         {sameDay},
	}
	for field, want := range cases {
		svc := &stubCartService{}
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		require.NoError(t, writer.WriteField("service_id", uuid.NewString()))
		require.NoError(t, writer.WriteField(field, want[0].String()))
		require.NoError(t, writer.Close())

		handler := CartAdd(svc, &stubStager{}, 1<<20, nil)
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", &buf), uuid.New(), enums.UserRoleCustomer)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, field)
		require.Equal(t, want, svc.added.DeliveryOptionIDs, field)
	}
}

func TestCartAddRejectsUnknownFields(t *testing.T) {
	handler := CartAdd(&stubCartService{}, nil, 1024, nil)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(`{"price":"1.00"}`)), uuid.New(), enums.UserRoleCustomer)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCartUpdateRequiresQuantity(t *testing.T) {
	svc := &stubCartService{}
	handler := CartUpdate(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/cart/update/x", strings.NewReader(`{}`)), uuid.New(), enums.UserRoleCustomer)
	req = withURLParam(req, "itemId", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Zero(t, svc.updatedTo)
}

func TestCartUpdatePassesQuantity(t *testing.T) {
	svc := &stubCartService{}
	handler := CartUpdate(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/cart/update/x", strings.NewReader(`{"quantity":3}`)), uuid.New(), enums.UserRoleCustomer)
	req = withURLParam(req, "itemId", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 3, svc.updatedTo)
}

func TestCartRemoveNotFound(t *testing.T) {
	handler := CartRemove(&stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}, nil)
	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/remove/x", nil), uuid.New(), enums.UserRoleCustomer)
	req = withURLParam(req, "itemId", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	require.False(t, env.Status)
	require.Equal(t, "cart item not found", env.Message)
}

func TestCartRemoveRejectsBadID(t *testing.T) {
	handler := CartRemove(&stubCartService{}, nil)
	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/remove/x", nil), uuid.New(), enums.UserRoleCustomer)
	req = withURLParam(req, "itemId", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	handler := CartClear(svc, nil)
	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/clear", nil), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.cleared)
}
