package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/go-blog-api/config"
	"github.com/inkpress/go-blog-api/internal/types"
)

// MockUserStore is a mock implementation of the UserStore interface.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

var testJWTConfig = config.JWTConfig{
	SecretKey:      "test-secret",
	Issuer:         "test-issuer",
	AccessTokenTTL: time.Hour,
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// nextRecorder is a terminal handler that records whether it ran and which
// user, if any, the middleware attached.
type nextRecorder struct {
	called bool
	user   *types.User
	userOK bool
}

func (n *nextRecorder) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.called = true
		n.user, n.userOK = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	activeUser := &types.User{
		ID:       userID,
		Name:     "Test User",
		Email:    "test@example.com",
		Role:     types.RoleUser,
		IsActive: true,
	}

	validToken := func(t *testing.T) string {
		t.Helper()
		token, err := IssueToken(userID, activeUser.Email, []byte(testJWTConfig.SecretKey), testJWTConfig.Issuer, time.Hour)
		require.NoError(t, err)
		return token
	}

	t.Run("MissingHeader", func(t *testing.T) {
		store := new(MockUserStore)
		next := &nextRecorder{}
		handler := Authenticate(testLogger(), testJWTConfig, store)(next.handler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Access token required", decodeBody(t, rec)["message"])
		assert.False(t, next.called)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		store := new(MockUserStore)
		next := &nextRecorder{}
		handler := Authenticate(testLogger(), testJWTConfig, store)(next.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Access token required", decodeBody(t, rec)["message"])
		assert.False(t, next.called)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		store := new(MockUserStore)
		next := &nextRecorder{}
		handler := Authenticate(testLogger(), testJWTConfig, store)(next.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Invalid token", decodeBody(t, rec)["message"])
		assert.False(t, next.called)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		store := new(MockUserStore)
		next := &nextRecorder{}
		handler := Authenticate(testLogger(), testJWTConfig, store)(next.handler())

		expired, err := IssueToken(userID, activeUser.Email, []byte(testJWTConfig.SecretKey), testJWTConfig.Issuer, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Token expired", decodeBody(t, rec)["message"])
		assert.False(t, next.called)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		store := new(MockUserStore)
		next := &nextRecorder{}
		handler := Authenticate(testLogger(), testJWTConfig, store)(next.handler())

		forged, err := IssueToken(userID, activeUser.Email, []byte("other-secret"), testJWTConfig.Issuer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Invalid token", decodeBody(t, rec)["message"])
	})

	t.Run("UserNotFound", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetUserByID", mock.Anything, userID).Return(nil, types.ErrNotFound).Once()
		next := &nextRecorder{}
		handler := Authenticate(testLogger(), testJWTConfig, store)(next.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Authentication failed", decodeBody(t, rec)["message"])
		assert.False(t, next.called)
		store.AssertExpectations(t)
	})

	t.Run("LookupFailure", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetUserByID", mock.Anything, userID).Return(nil, errors.New("db down")).Once()
		next := &nextRecorder{}
		handler := Authenticate(testLogger(), testJWTConfig, store)(next.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Authentication failed", decodeBody(t, rec)["message"])
		store.AssertExpectations(t)
	})

	t.Run("Success", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetUserByID", mock.Anything, userID).Return(activeUser, nil).Once()
		next := &nextRecorder{}
		handler := Authenticate(testLogger(), testJWTConfig, store)(next.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, next.called)
		require.True(t, next.userOK)
		assert.Equal(t, userID, next.user.ID)
		store.AssertExpectations(t)
	})

	t.Run("EmptySecretPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			Authenticate(testLogger(), config.JWTConfig{}, new(MockUserStore))
		})
	})
}

func TestOptionalAuthenticate(t *testing.T) {
	userID := uuid.New()

	t.Run("NoHeaderStaysAnonymous", func(t *testing.T) {
		store := new(MockUserStore)
		next := &nextRecorder{}
		handler := OptionalAuthenticate(testLogger(), testJWTConfig, store)(next.handler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, next.called)
		assert.False(t, next.userOK)
	})

	t.Run("InvalidTokenStaysAnonymous", func(t *testing.T) {
		store := new(MockUserStore)
		next := &nextRecorder{}
		handler := OptionalAuthenticate(testLogger(), testJWTConfig, store)(next.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, next.called)
		assert.False(t, next.userOK)
	})

	t.Run("InactiveUserStaysAnonymous", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetUserByID", mock.Anything, userID).
			Return(&types.User{ID: userID, IsActive: false}, nil).Once()
		next := &nextRecorder{}
		handler := OptionalAuthenticate(testLogger(), testJWTConfig, store)(next.handler())

		token, err := IssueToken(userID, "test@example.com", []byte(testJWTConfig.SecretKey), testJWTConfig.Issuer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, next.called)
		assert.False(t, next.userOK)
		store.AssertExpectations(t)
	})

	t.Run("ValidTokenAttachesUser", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetUserByID", mock.Anything, userID).
			Return(&types.User{ID: userID, IsActive: true}, nil).Once()
		next := &nextRecorder{}
		handler := OptionalAuthenticate(testLogger(), testJWTConfig, store)(next.handler())

		token, err := IssueToken(userID, "test@example.com", []byte(testJWTConfig.SecretKey), testJWTConfig.Issuer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, next.userOK)
		assert.Equal(t, userID, next.user.ID)
		store.AssertExpectations(t)
	})
}

func TestAuthorize(t *testing.T) {
	withUser := func(r *http.Request, user *types.User) *http.Request {
		return r.WithContext(ContextWithUser(r.Context(), user))
	}

	t.Run("NoUser", func(t *testing.T) {
		next := &nextRecorder{}
		handler := Authorize(testLogger(), types.RoleAdmin)(next.handler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication required", decodeBody(t, rec)["message"])
		assert.False(t, next.called)
	})

	t.Run("AllowedRole", func(t *testing.T) {
		next := &nextRecorder{}
		handler := Authorize(testLogger(), types.RoleAdmin, types.RoleModerator)(next.handler())

		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), &types.User{Role: types.RoleModerator})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, next.called)
	})

	t.Run("ForbiddenRole", func(t *testing.T) {
		next := &nextRecorder{}
		handler := Authorize(testLogger(), types.RoleAdmin, types.RoleModerator)(next.handler())

		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), &types.User{Role: types.RoleUser})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		msg := decodeBody(t, rec)["message"].(string)
		assert.Contains(t, msg, "Access denied")
		assert.Contains(t, msg, "admin, moderator")
		assert.False(t, next.called)
	})

	t.Run("NoRolesAllowsAnyAuthenticatedUser", func(t *testing.T) {
		next := &nextRecorder{}
		handler := Authorize(testLogger())(next.handler())

		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), &types.User{Role: types.RoleUser})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, next.called)
	})
}
