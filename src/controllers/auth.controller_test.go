package controllers

import (
	"context"
	"log"
	"louefacile/src/db"
	"louefacile/src/lib"
	"louefacile/src/types"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func jsonContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest("POST", "/", strings.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx, w
}

func TestAuthRequestOTPValidation(t *testing.T) {
	for name, body := range map[string]string{
		"missing email":   `{}`,
		"malformed email": `{"email":"not-an-email"}`,
	} {
		ctx, _ := jsonContext(body)
		status, err := AuthRequestOTP(ctx)
		assert.Errorf(t, err, "case=%s", name)
		assert.Equalf(t, http.StatusBadRequest, status, "case=%s", name)
	}
}

func TestAuthRequestOTPUnknownEmail(t *testing.T) {
	conn, mock := newMockDB()
	db.NewDB(conn)

	mock.ExpectQuery(`SELECT (.+) FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"uid", "email"}))

	ctx, _ := jsonContext(`{"email":"nobody@example.com"}`)
	status, err := AuthRequestOTP(ctx)

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRequestOTPMintsToken(t *testing.T) {
	conn, mock := newMockDB()
	db.NewDB(conn)

	mock.ExpectQuery(`SELECT (.+) FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"uid", "email", "full_name"}).
			AddRow("user-1", "tenant@example.com", "Tenant One"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	ctx, _ := jsonContext(`{"email":"tenant@example.com"}`)
	status, err := AuthRequestOTP(ctx)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthIssueCode(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.Regexp().
		ExpectSetEx(`auth:code:[0-9a-f]{64}`, `.+`, 5*time.Minute).
		SetVal("OK")

	ctx, _ := jsonContext(`{}`)
	ctx.Set("uid", "user-1")
	code, status, err := AuthIssueCode(ctx)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	if assert.NotNil(t, code) {
		assert.Len(t, *code, 64)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveCallbackIdentityCode(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lib.NewRedisClient(rdb)

	mock.ExpectGetDel("auth:code:abc123").SetVal("user-1")

	uid, err := resolveCallbackIdentity(context.Background(), types.CallbackAction{
		Kind: types.CallbackCode,
		Code: "abc123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "user-1", uid)
	assert.NoError(t, mock.ExpectationsWereMet())
}
