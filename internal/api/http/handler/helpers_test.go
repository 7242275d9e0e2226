package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/feedback-server/internal/model"
	"github.com/dtroode/feedback-server/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func sampleLogin() service.LoginResult {
	return service.LoginResult{
		User: model.User{ID: uuid.New(), Name: "Ann", Email: "a@x.com", Verified: true},
		Session: model.Session{
			AccessToken:  "access",
			RefreshToken: "refresh",
		},
	}
}

type authStub struct {
	registerErr error
	login       service.LoginResult
	loginErr    error
	google      service.LoginResult
	googleErr   error

	gotEmail, gotPassword, gotCredential string
}

func (s *authStub) Register(_ context.Context, _, email, password string) (model.User, error) {
	s.gotEmail, s.gotPassword = email, password
	return model.User{ID: uuid.New()}, s.registerErr
}

func (s *authStub) Login(_ context.Context, email, password string) (service.LoginResult, error) {
	s.gotEmail, s.gotPassword = email, password
	return s.login, s.loginErr
}

func (s *authStub) Google(_ context.Context, credential string) (service.LoginResult, error) {
	s.gotCredential = credential
	return s.google, s.googleErr
}

type otpStub struct {
	request service.OTPRequestResult
	err     error
	login   service.LoginResult

	gotCode, gotPassword string
}

func (s *otpStub) Request(context.Context, string, string, string) (service.OTPRequestResult, error) {
	return s.request, s.err
}

func (s *otpStub) Verify(_ context.Context, _, code, _, password string) (service.LoginResult, error) {
	s.gotCode, s.gotPassword = code, password
	return s.login, s.err
}

func (s *otpStub) Resend(context.Context, string) (service.OTPRequestResult, error) {
	return s.request, s.err
}

type resetStub struct {
	initiate    service.ResetResult
	initiateErr error
	message     string
	completeErr error
}

func (s *resetStub) Initiate(context.Context, string) (service.ResetResult, error) {
	return s.initiate, s.initiateErr
}

func (s *resetStub) Complete(context.Context, string, string, string) (string, error) {
	return s.message, s.completeErr
}

type tokenStub struct {
	session   model.Session
	err       error
	revokeErr error
	revoked   string
}

func (s *tokenStub) Refresh(context.Context, string) (model.Session, error) {
	return s.session, s.err
}

func (s *tokenStub) RevokeByToken(_ context.Context, token string) error {
	s.revoked = token
	return s.revokeErr
}

type exchangeStub struct {
	login service.LoginResult
	err   error
}

func (s *exchangeStub) Redeem(context.Context, string) (service.LoginResult, error) {
	return s.login, s.err
}

type linkedInStub struct {
	code    string
	err     error
	gotCode string
}

func (s *linkedInStub) AuthorizationURL(state string) string {
	return "https://www.linkedin.com/oauth/v2/authorization?state=" + state
}

func (s *linkedInStub) Complete(_ context.Context, code string) (string, error) {
	s.gotCode = code
	return s.code, s.err
}

type feedbackStub struct {
	submitted []model.Answer
	err       error
	items     []model.Feedback
}

func (s *feedbackStub) Submit(_ context.Context, userID uuid.UUID, answers []model.Answer) (model.Feedback, error) {
	s.submitted = answers
	return model.Feedback{ID: uuid.New(), UserID: userID, Answers: answers, SubmittedAt: time.Now()}, s.err
}

func (s *feedbackStub) List(context.Context, string) ([]model.Feedback, error) {
	return s.items, s.err
}

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }
