package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civiclabs-ng/supcore/internal/domain"
	"github.com/civiclabs-ng/supcore/internal/user"
)

// MockUserService mocks the user.Service interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserService) SetVerificationTier(ctx context.Context, userID uuid.UUID, handle string, tier domain.VerificationTier) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID, handle, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserService) VerificationTier(ctx context.Context, userID uuid.UUID) (domain.VerificationTier, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.VerificationTier), args.Error(1)
}

func newUserRouter(svc user.Service) http.Handler {
	InitValidator()
	r := chi.NewRouter()
	r.Get("/users/{userID}", HandleGetProfile(svc))
	r.Put("/users/{userID}/verification", HandleSetVerification(svc))
	return r
}

func TestHandleGetProfile(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		mockSvc := &MockUserService{}
		userID := uuid.New()
		mockSvc.On("GetProfile", mock.Anything, userID).
			Return(&domain.UserProfile{UserID: userID, Handle: "ada", VerificationTier: domain.TierBasic}, nil)

		req := httptest.NewRequest("GET", "/users/"+userID.String(), nil)
		w := httptest.NewRecorder()

		newUserRouter(mockSvc).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"handle":"ada"`)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown user maps to not found", func(t *testing.T) {
		mockSvc := &MockUserService{}
		mockSvc.On("GetProfile", mock.Anything, mock.Anything).
			Return(nil, domain.ErrUserNotFound)

		req := httptest.NewRequest("GET", "/users/"+uuid.New().String(), nil)
		w := httptest.NewRecorder()

		newUserRouter(mockSvc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), ErrMsgUserNotFoundError)
	})

	t.Run("rejects a malformed user id", func(t *testing.T) {
		mockSvc := &MockUserService{}

		req := httptest.NewRequest("GET", "/users/not-a-uuid", nil)
		w := httptest.NewRecorder()

		newUserRouter(mockSvc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "GetProfile")
	})
}

func TestHandleSetVerification(t *testing.T) {
	t.Run("records the reported tier", func(t *testing.T) {
		mockSvc := &MockUserService{}
		userID := uuid.New()
		mockSvc.On("SetVerificationTier", mock.Anything, userID, "ada", domain.TierFull).
			Return(&domain.UserProfile{UserID: userID, Handle: "ada", VerificationTier: domain.TierFull}, nil)

		body := `{"handle":"ada","tier":"FULL"}`
		req := httptest.NewRequest("PUT", "/users/"+userID.String()+"/verification", strings.NewReader(body))
		w := httptest.NewRecorder()

		newUserRouter(mockSvc).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("rejects an unknown tier before the service", func(t *testing.T) {
		mockSvc := &MockUserService{}

		body := `{"tier":"PLATINUM"}`
		req := httptest.NewRequest("PUT", "/users/"+uuid.New().String()+"/verification", strings.NewReader(body))
		w := httptest.NewRecorder()

		newUserRouter(mockSvc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "SetVerificationTier")
	})
}
