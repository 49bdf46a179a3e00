package middleware

import (
  "context"
  "errors"
  "net/http"
  "net/http/httptest"
  "testing"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/stretchr/testify/require"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/requestdata"
  "github.com/haven-labs/haven-backend/internal/types"
)

type stubAuthService struct {
  userID    uuid.UUID
  validTok  string
  lastToken string
}

func (s *stubAuthService) RegisterUser(ctx context.Context, user *types.User) error { return nil }
func (s *stubAuthService) VerifyEmail(ctx context.Context, code string) error       { return nil }
func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
  return "", "", nil
}
func (s *stubAuthService) Refresh(ctx context.Context) (string, string, error) { return "", "", nil }
func (s *stubAuthService) Logout(ctx context.Context) error                    { return nil }
func (s *stubAuthService) GetAccessTTL() time.Duration                         { return time.Hour }

func (s *stubAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  s.lastToken = tokenString
  if tokenString != s.validTok {
    return ctx, errors.New("invalid or expired JWT token")
  }
  return requestdata.WithRequestData(ctx, &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      s.userID,
  }), nil
}

func newAuthedRouter(t *testing.T, svc *stubAuthService) *gin.Engine {
  t.Helper()
  gin.SetMode(gin.TestMode)
  log, err := logger.New("development")
  require.NoError(t, err)
  mw := NewAuthMiddleware(log, svc)
  router := gin.New()
  router.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    c.JSON(http.StatusOK, gin.H{"userId": rd.UserID})
  })
  return router
}

func TestRequireAuth_MissingToken(t *testing.T) {
  router := newAuthedRouter(t, &stubAuthService{userID: uuid.New(), validTok: "good"})

  req := httptest.NewRequest(http.MethodGet, "/protected", nil)
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)

  require.Equal(t, http.StatusUnauthorized, w.Code)
  require.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestRequireAuth_InvalidToken(t *testing.T) {
  router := newAuthedRouter(t, &stubAuthService{userID: uuid.New(), validTok: "good"})

  req := httptest.NewRequest(http.MethodGet, "/protected", nil)
  req.Header.Set("Authorization", "Bearer forged")
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)

  require.Equal(t, http.StatusUnauthorized, w.Code)
  require.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestRequireAuth_BearerHeader(t *testing.T) {
  svc := &stubAuthService{userID: uuid.New(), validTok: "good"}
  router := newAuthedRouter(t, svc)

  req := httptest.NewRequest(http.MethodGet, "/protected", nil)
  req.Header.Set("Authorization", "Bearer good")
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)

  require.Equal(t, http.StatusOK, w.Code)
  require.Equal(t, "good", svc.lastToken)
}

func TestRequireAuth_QueryToken(t *testing.T) {
  svc := &stubAuthService{userID: uuid.New(), validTok: "good"}
  router := newAuthedRouter(t, svc)

  // EventSource cannot set headers, so SSE passes the token in the query.
  req := httptest.NewRequest(http.MethodGet, "/protected?token=good", nil)
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)

  require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_NilUserID(t *testing.T) {
  svc := &stubAuthService{userID: uuid.Nil, validTok: "good"}
  router := newAuthedRouter(t, svc)

  req := httptest.NewRequest(http.MethodGet, "/protected", nil)
  req.Header.Set("Authorization", "Bearer good")
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)

  require.Equal(t, http.StatusUnauthorized, w.Code)
}
