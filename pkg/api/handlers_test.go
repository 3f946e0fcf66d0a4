package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/navarrastar/application-relay/pkg/clients/smtprelay"
	"github.com/navarrastar/application-relay/pkg/config"
	"github.com/navarrastar/application-relay/pkg/middleware"
	"github.com/navarrastar/application-relay/pkg/mocks"
	"github.com/navarrastar/application-relay/pkg/models"
	"github.com/navarrastar/application-relay/pkg/services"
	"github.com/navarrastar/application-relay/pkg/validation"
)

const exampleBody = `{"first-name":"Jo","last-name":"Lee","email":"jo@example.com","phone":"555-1234","address":"1 Rd","city-state":"X, Y","zipcode":"00000","gender":"F","age":"20","bank-name":"Bank"}`

func init() {
	gin.SetMode(gin.TestMode)
}

// relayConfig mirrors the variant of the form without a bank account number.
func relayConfig() *config.Config {
	return &config.Config{
		Relay: config.RelayConfig{
			SenderEmail:    "site@example.com",
			SenderPassword: "app-password",
			ReceiverEmail:  "hr@example.com",
		},
		ThankYouPath:       "/thank_you.html",
		RequireBankNumber:  false,
		CORSAllowedOrigins: []string{"*"},
	}
}

func newRouter(t *testing.T, cfg *config.Config, client smtprelay.Client) *gin.Engine {
	t.Helper()
	logger := zerolog.New(io.Discard)
	svc := services.NewSubmissionService(
		client,
		validation.New(validation.Options{RequireBankNumber: cfg.RequireBankNumber}),
		cfg,
		logger,
	)
	return NewRouter(NewHandlers(svc), cfg.CORSAllowedOrigins, logger)
}

func postSendMail(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sendmail", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) models.Response {
	t.Helper()
	var resp models.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestSendMailSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, msg smtprelay.Message) error {
			assert.NoError(t, ctx.Err())
			assert.Contains(t, msg.Body, "Account Number: N/A")
			return nil
		}).Times(1)

	rec := postSendMail(newRouter(t, relayConfig(), client), exampleBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"status":"success","message":"Form sent successfully!","redirect":"/thank_you.html"}`,
		rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestSendMailBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "No JSON body provided"},
		{"null body", "null", "No JSON body provided"},
		{"malformed json", `{"first-name":`, "Invalid JSON format"},
		{"array body", `[1,2,3]`, "Invalid JSON format"},
		{
			"missing fields",
			`{"first-name":"Jo","email":"jo@example.com","phone":"555-1234","address":"1 Rd","city-state":"X","zipcode":"1","gender":"F","age":"20"}`,
			"Last Name is required. | Bank Name is required.",
		},
		{
			"bad formats",
			strings.Replace(strings.Replace(exampleBody, `"555-1234"`, `"12"`, 1), `"20"`, `"17"`, 1),
			"Invalid phone number format. | You must be at least 18.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			client.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

			rec := postSendMail(newRouter(t, relayConfig(), client), tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode(t, rec)
			assert.Equal(t, models.StatusError, resp.Status)
			assert.Equal(t, tc.message, resp.Message)
			assert.Empty(t, resp.Redirect)
		})
	}
}

func TestSendMailRejectsNonJSONContentTypes(t *testing.T) {
	for _, contentType := range []string{"", "text/plain", "application/x-www-form-urlencoded", "multipart/form-data; boundary=x"} {
		t.Run(contentType, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			client.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

			req := httptest.NewRequest(http.MethodPost, "/sendmail", strings.NewReader(exampleBody))
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			rec := httptest.NewRecorder()
			newRouter(t, relayConfig(), client).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, services.MsgInvalidJSON, decode(t, rec).Message)
		})
	}
}

func TestSendMailAcceptsJSONContentTypeVariants(t *testing.T) {
	for _, contentType := range []string{"application/json; charset=utf-8", "Application/JSON", "application/vnd.api+json"} {
		t.Run(contentType, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			client.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

			req := httptest.NewRequest(http.MethodPost, "/sendmail", strings.NewReader(exampleBody))
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			newRouter(t, relayConfig(), client).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}

func TestSendMailRequiresBankNumberByDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	cfg := relayConfig()
	cfg.RequireBankNumber = true

	rec := postSendMail(newRouter(t, cfg, client), exampleBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bank Number is required.", decode(t, rec).Message)
}

func TestSendMailServerFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		sendErr error
		sends   int
		message string
	}{
		{
			name:    "missing relay config",
			mutate:  func(c *config.Config) { c.Relay.ReceiverEmail = "" },
			sends:   0,
			message: services.MsgMisconfigured,
		},
		{
			name:    "authentication rejected",
			sendErr: smtprelay.ErrAuthentication,
			sends:   1,
			message: services.MsgAuthFailure,
		},
		{
			name:    "relay unreachable",
			sendErr: errors.New("smtp relay: dial smtp.gmail.com:587: i/o timeout"),
			sends:   1,
			message: services.MsgSendFailure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			client.EXPECT().Send(gomock.Any(), gomock.Any()).Return(tc.sendErr).Times(tc.sends)

			cfg := relayConfig()
			if tc.mutate != nil {
				tc.mutate(cfg)
			}

			rec := postSendMail(newRouter(t, cfg, client), exampleBody)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			resp := decode(t, rec)
			assert.Equal(t, models.StatusError, resp.Status)
			assert.Equal(t, tc.message, resp.Message)
			assert.NotContains(t, rec.Body.String(), "app-password")
		})
	}
}

type panickingService struct{}

func (panickingService) ProcessSubmission(context.Context, models.Submission) (services.Receipt, error) {
	panic("unexpected nil map")
}

type erroringService struct{ err error }

func (s erroringService) ProcessSubmission(context.Context, models.Submission) (services.Receipt, error) {
	return services.Receipt{}, s.err
}

func TestSendMailInternalErrors(t *testing.T) {
	for name, svc := range map[string]services.SubmissionService{
		"panic":         panickingService{},
		"untyped error": erroringService{err: errors.New("disk on fire")},
	} {
		t.Run(name, func(t *testing.T) {
			router := NewRouter(NewHandlers(svc), []string{"*"}, zerolog.New(io.Discard))
			rec := postSendMail(router, exampleBody)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"status":"error","message":"An internal error occurred."}`, rec.Body.String())
		})
	}
}

func TestSendMailOversizedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	body := `{"first-name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := postSendMail(newRouter(t, relayConfig(), client), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.MsgInvalidJSON, decode(t, rec).Message)
}

func TestCORSPreflight(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newRouter(t, relayConfig(), mocks.NewMockClient(ctrl))

	req := httptest.NewRequest(http.MethodOptions, "/sendmail", nil)
	req.Header.Set("Origin", "https://apply.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newRouter(t, relayConfig(), mocks.NewMockClient(ctrl))

	const id = "8f7d2c1e-6b4a-4f3e-9a21-0c5d7e8f9a10"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, id)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, id, rec.Header().Get(middleware.RequestIDHeader))
}

func TestSendMailRejectsOtherMethods(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newRouter(t, relayConfig(), mocks.NewMockClient(ctrl))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sendmail", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
