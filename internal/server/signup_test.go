package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/salestrackpro/salestrack/internal/account/domain"
	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
)

type fakeInvitationService struct {
	summary    invitationdomain.Summary
	validate   error
	consume    error
	consumed   *invitationdomain.ConsumeInvitationRequest
	lastToken  string
	consumeAcc accountdomain.Account
}

func (f *fakeInvitationService) Create(ctx context.Context, req invitationdomain.CreateInvitationRequest) (invitationdomain.Invitation, error) {
	return invitationdomain.Invitation{}, nil
}

func (f *fakeInvitationService) List(ctx context.Context, req invitationdomain.ListInvitationRequest) (invitationdomain.ListInvitationResponse, error) {
	return invitationdomain.ListInvitationResponse{}, nil
}

func (f *fakeInvitationService) GetByID(ctx context.Context, req invitationdomain.GetInvitationRequest) (invitationdomain.Invitation, error) {
	return invitationdomain.Invitation{}, invitationdomain.ErrNotFound
}

func (f *fakeInvitationService) Send(ctx context.Context, req invitationdomain.SendInvitationRequest) error {
	return nil
}

func (f *fakeInvitationService) Cancel(ctx context.Context, req invitationdomain.CancelInvitationRequest) error {
	return nil
}

func (f *fakeInvitationService) Validate(ctx context.Context, token string) (invitationdomain.Summary, error) {
	f.lastToken = token
	if f.validate != nil {
		return invitationdomain.Summary{}, f.validate
	}
	return f.summary, nil
}

func (f *fakeInvitationService) Consume(ctx context.Context, req invitationdomain.ConsumeInvitationRequest) (accountdomain.Account, error) {
	f.consumed = &req
	if f.consume != nil {
		return accountdomain.Account{}, f.consume
	}
	return f.consumeAcc, nil
}

func (f *fakeInvitationService) ExpireOverdue(ctx context.Context) (int64, error) {
	return 0, nil
}

func newSignupRouter(svc invitationdomain.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := &Server{invitationSvc: svc}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/signup/:token", srv.ValidateInvitation)
	router.POST("/signup/:token", srv.ConsumeInvitation)
	return router
}

func TestValidateInvitationHandler(t *testing.T) {
	email := "jane.doe@gmail.com"
	svc := &fakeInvitationService{
		summary: invitationdomain.Summary{
			ContactName:    "Jane Doe",
			ContactEmail:   &email,
			InvitationType: invitationdomain.TypeEmail,
			ExpiresAt:      time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC),
		},
	}
	router := newSignupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/signup/some-token", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastToken != "some-token" {
		t.Fatalf("token not forwarded, got %q", svc.lastToken)
	}

	var body struct {
		Data invitationdomain.Summary `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.ContactName != "Jane Doe" {
		t.Fatalf("unexpected summary: %+v", body.Data)
	}
}

func TestValidateInvitationHandlerExpired(t *testing.T) {
	svc := &fakeInvitationService{validate: invitationdomain.ErrExpired}
	router := newSignupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/signup/stale-token", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var body struct {
		Error errorPayload `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Error.Expired {
		t.Fatalf("expected expired flag in payload: %s", resp.Body.String())
	}
}

func TestValidateInvitationHandlerUnknownToken(t *testing.T) {
	svc := &fakeInvitationService{validate: invitationdomain.ErrNotFound}
	router := newSignupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/signup/bogus", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestConsumeInvitationHandler(t *testing.T) {
	svc := &fakeInvitationService{
		consumeAcc: accountdomain.Account{Email: "jane.doe@gmail.com", IsStaff: true},
	}
	router := newSignupRouter(svc)

	payload := `{"email":"jane.doe@gmail.com","password":"s3cret-pass","first_name":"Jane"}`
	req := httptest.NewRequest(http.MethodPost, "/signup/some-token", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.consumed == nil {
		t.Fatal("consume not called")
	}
	if svc.consumed.Token != "some-token" {
		t.Fatalf("token not forwarded, got %q", svc.consumed.Token)
	}
	if svc.consumed.Email != "jane.doe@gmail.com" || svc.consumed.FirstName != "Jane" {
		t.Fatalf("request body not bound: %+v", svc.consumed)
	}
	if svc.consumed.UserAgent != "test-agent" {
		t.Fatalf("user agent not captured, got %q", svc.consumed.UserAgent)
	}
}

func TestConsumeInvitationHandlerEmailMismatch(t *testing.T) {
	svc := &fakeInvitationService{consume: invitationdomain.ErrEmailMismatch}
	router := newSignupRouter(svc)

	payload := `{"email":"other@gmail.com","password":"s3cret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/signup/some-token", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
