package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sweetshop/internal/models"
	"sweetshop/internal/repo"
	"sweetshop/internal/service"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type testEnv struct {
	E  *echo.Echo
	DB *gorm.DB
	A  *AuthHandler
	S  *SweetHandler
}

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Sweet{}))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := newTestDB(t)
	authSvc := &service.AuthService{
		Users:         &repo.UserRepo{DB: db},
		JWTSecret:     testJWTSecret,
		RefreshSecret: testRefreshSecret,
	}
	sweetSvc := &service.SweetService{Sweets: &repo.SweetRepo{DB: db}}

	return &testEnv{
		E:  echo.New(),
		DB: db,
		A:  &AuthHandler{Auth: authSvc},
		S:  &SweetHandler{Svc: sweetSvc},
	}
}

func (env *testEnv) doJSON(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

func (env *testEnv) seedSweet(t *testing.T, name, category string, price float64, quantity int) models.Sweet {
	t.Helper()
	sweet := models.Sweet{Name: name, Category: category, Price: price, Quantity: quantity}
	require.NoError(t, env.DB.Create(&sweet).Error)
	return sweet
}

func requireHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
	return he
}
