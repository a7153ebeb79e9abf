package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/visadesk-backend/api/middleware"
	"github.com/angelmondragon/visadesk-backend/internal/uploads"
	"github.com/angelmondragon/visadesk-backend/pkg/enums"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func asUser(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role)
	ctx = middleware.WithEmail(ctx, "traveller@example.com")
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type stubStager struct {
	calls []uploads.StageInput
}

func (s *stubStager) Stage(ctx context.Context, userID uuid.UUID, input uploads.StageInput) (*uploads.Staged, error) {
	s.calls = append(s.calls, input)
	return &uploads.Staged{Path: "uploads/tmp/" + input.Filename, Size: input.Size}, nil
}
