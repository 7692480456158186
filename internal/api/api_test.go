package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/surya-d-naidu/UniOD/internal/config"
	"github.com/surya-d-naidu/UniOD/internal/container"
	"github.com/surya-d-naidu/UniOD/internal/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const cookieName = "od_tracker_session"

// apiEnv 接口测试环境: 内存数据库 + 完整路由
type apiEnv struct {
	ctr    *container.Container
	router *gin.Engine
}

func newAPIEnv(t *testing.T, mode string) *apiEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := config.Default()
	cfg.Approval.Mode = mode
	cfg.Retry.MaxRetries = 0
	cfg.RateLimit.AuthRPS = 0
	cfg.Security.BcryptCost = bcrypt.MinCost

	ctr := container.New(cfg, db)
	_, err = ctr.AdminSeeder().Seed(context.Background())
	require.NoError(t, err)

	return &apiEnv{ctr: ctr, router: ctr.Router()}
}

// do 发送 JSON 请求
func (e *apiEnv) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login 登录并返回会话 cookie
func (e *apiEnv) login(t *testing.T, regNo, password string) *http.Cookie {
	w := e.do(http.MethodPost, "/api/login", gin.H{"registrationNumber": regNo, "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == cookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func (e *apiEnv) adminCookie(t *testing.T) *http.Cookie {
	return e.login(t, "ADMIN001", "admin123")
}

// student 注册、审核并登录一个学生,返回其 ID 和 cookie
func (e *apiEnv) student(t *testing.T, admin *http.Cookie, regNo, name string) (uint, *http.Cookie) {
	w := e.do(http.MethodPost, "/api/register", gin.H{
		"registrationNumber": regNo,
		"name":               name,
		"mobile":             "9876543210",
		"password":           "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user struct {
		ID uint `json:"id"`
	}
	decode(t, w, &user)

	w = e.do(http.MethodPost, fmt.Sprintf("/api/admin/approve-student/%d", user.ID), nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return user.ID, e.login(t, regNo, "secret123")
}

// createOd 新建 OD 申请并返回 ID
func (e *apiEnv) createOd(t *testing.T, cookie *http.Cookie, date, session string) uint {
	w := e.do(http.MethodPost, "/api/od-requests", gin.H{"date": date, "session": session, "reason": "Technical symposium"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	decode(t, w, &created)
	return created.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// errorBody 错误响应
type errorBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}
