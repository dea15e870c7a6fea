package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideahub/internal/delivery/http/middleware"
	"ideahub/internal/domain"
)

type fakeInvitationService struct {
	sentEmails []string
	sentRoles  []string
	sendErr    error
	enqueued   int

	invitation *domain.Invitation
}

func (f *fakeInvitationService) SendInvitations(ctx context.Context, sender *domain.Claims, emails, roles []string) (int, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sentEmails, f.sentRoles = emails, roles
	return f.enqueued, nil
}

func (f *fakeInvitationService) Get(ctx context.Context, id string) (*domain.Invitation, error) {
	if f.invitation == nil || f.invitation.ID != id {
		return nil, domain.ErrNotFound
	}
	return f.invitation, nil
}

func adminContext(r *http.Request) *http.Request {
	claims := &domain.Claims{
		Subject:   "admin-1",
		FirstName: "Alice",
		LastName:  "Ivanova",
		Roles:     []string{domain.RoleAdmin},
		Kind:      domain.TokenKindAccess,
	}
	return r.WithContext(middleware.SetClaims(r.Context(), claims))
}

func TestInvitationController_Send(t *testing.T) {
	t.Run("enqueues and reports the count", func(t *testing.T) {
		svc := &fakeInvitationService{enqueued: 2}
		ctrl := NewInvitationController(testLogger(), svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/invitations",
			strings.NewReader(`{"emails":["a@x.com","b@x.com"],"roles":["EXPERT"]}`))
		ctrl.Send(rec, adminContext(req))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"enqueued":2`)
		assert.Equal(t, []string{"a@x.com", "b@x.com"}, svc.sentEmails)
		assert.Equal(t, []string{"EXPERT"}, svc.sentRoles)
	})

	t.Run("conflict from the service is a 409 with the message", func(t *testing.T) {
		svc := &fakeInvitationService{sendErr: domain.Conflictf("emails already registered: a@x.com")}
		ctrl := NewInvitationController(testLogger(), svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/invitations",
			strings.NewReader(`{"emails":["a@x.com"],"roles":["EXPERT"]}`))
		ctrl.Send(rec, adminContext(req))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "a@x.com")
	})

	t.Run("missing claims is a 401", func(t *testing.T) {
		ctrl := NewInvitationController(testLogger(), &fakeInvitationService{})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/invitations",
			strings.NewReader(`{"emails":["a@x.com"],"roles":["EXPERT"]}`))
		ctrl.Send(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("empty batch is a 400", func(t *testing.T) {
		ctrl := NewInvitationController(testLogger(), &fakeInvitationService{})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/invitations",
			strings.NewReader(`{"emails":[],"roles":[]}`))
		ctrl.Send(rec, adminContext(req))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInvitationController_Get(t *testing.T) {
	svc := &fakeInvitationService{invitation: &domain.Invitation{
		ID:        "inv-1",
		Email:     "a@x.com",
		Roles:     []string{domain.RoleExpert},
		ExpiresAt: time.Now().Add(3 * time.Hour),
	}}
	ctrl := NewInvitationController(testLogger(), svc)

	t.Run("returns the invitation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/invitations/inv-1", nil)
		req.SetPathValue("invitationID", "inv-1")
		ctrl.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"a@x.com"`)
	})

	t.Run("expired or unknown is a 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/invitations/inv-404", nil)
		req.SetPathValue("invitationID", "inv-404")
		ctrl.Get(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
