package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/santosrp/clanhub/server/api/rest"
	"github.com/santosrp/clanhub/server/api/sse"
	"github.com/santosrp/clanhub/server/audit"
	"github.com/santosrp/clanhub/server/cache"
	"github.com/santosrp/clanhub/server/config"
	"github.com/santosrp/clanhub/server/membership"
	mw "github.com/santosrp/clanhub/server/middleware"
	"github.com/santosrp/clanhub/server/ranking"
	"github.com/santosrp/clanhub/server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// AdminPassword is the bootstrap admin password wired into the harness.
const AdminPassword = "integration-admin-pass"

// TestServer wraps a real HTTP server with every subsystem wired together.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	PubSub cache.PubSub
	Server *httptest.Server
	URL    string // http://127.0.0.1:<port>
	Sec    config.SecurityConfig
}

// NewTestServer creates a fully wired server for integration testing.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	adminCfg := config.AdminConfig{Name: "root", PasswordHash: string(hash)}

	// ---- Services ----
	membershipSvc := membership.NewService(db, logger)
	rankingSvc := ranking.NewService(db)
	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })

	// ---- Gin HTTP Server (mirrors main.go) ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	sseH := sse.NewHandler(pubsub, c, sec, logger)
	authH := apirest.NewAuthHandler(db, c, sec, adminCfg)
	clanH := apirest.NewClanHandler(db, membershipSvc, auditSvc)
	requestH := apirest.NewJoinRequestHandler(db, membershipSvc, auditSvc)
	announceH := apirest.NewAnnouncementHandler(db, sseH, logger)
	rankH := apirest.NewRankingHandler(rankingSvc)
	adminH := apirest.NewAdminHandler(db, membershipSvc, auditSvc)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/discord", authH.DiscordLogin)
		authG.POST("/admin/login", authH.AdminLogin)
		authG.POST("/logout", mw.Auth(sec, c), authH.Logout)

		api.GET("/me", mw.OptionalAuth(sec, c), authH.Me)
		api.POST("/register", requestH.Register)

		api.GET("/clans", clanH.List)
		api.GET("/clans/:id", clanH.Detail)
		api.POST("/clans", mw.Auth(sec, c), clanH.Create)

		requestsG := api.Group("/join-requests", mw.Auth(sec, c))
		requestsG.GET("", requestH.List)
		requestsG.POST("/:id/approve", requestH.Approve)
		requestsG.POST("/:id/reject", requestH.Reject)

		announceG := api.Group("/announcements", mw.Auth(sec, c))
		announceG.GET("", announceH.List)
		announceG.POST("", announceH.Create)

		api.GET("/ranking", rankH.Rankings)
		api.GET("/stats", rankH.Stats)

		adminG := api.Group("/admin", mw.Auth(sec, c))
		adminG.GET("/users", adminH.ListUsers)
		adminG.POST("/users/:id/role", adminH.ChangeRole)
		adminG.DELETE("/clans/:id", clanH.Delete)
	}

	r.GET("/sse", sseH.ServeSSE)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &TestServer{
		DB:     db,
		Cache:  c,
		PubSub: pubsub,
		Server: srv,
		URL:    srv.URL,
		Sec:    sec,
	}
}

// Close shuts the HTTP server down.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// --- HTTP helpers ---

// Get performs an authenticated GET. Pass an empty token for anonymous calls.
func (ts *TestServer) Get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// PostJSON performs an authenticated POST with a JSON body.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Delete performs an authenticated DELETE.
func (ts *TestServer) Delete(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ReadJSON decodes a response body into out and closes the body.
func ReadJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out), "body: %s", data)
}

// --- Composite helpers ---

// DiscordLogin logs a member in through the identity endpoint.
// Returns the session token and user id.
func (ts *TestServer) DiscordLogin(t *testing.T, discordID, name string) (string, int64) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/discord", map[string]string{
		"discord_id": discordID, "name": name,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	ReadJSON(t, resp, &body)
	token := body["token"].(string)
	userID := int64(body["user"].(map[string]interface{})["id"].(float64))
	return token, userID
}

// AdminLogin logs the bootstrap admin in.
func (ts *TestServer) AdminLogin(t *testing.T) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/admin/login", map[string]string{
		"name": "root", "password": AdminPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	ReadJSON(t, resp, &body)
	return body["token"].(string)
}

var uniqueCounter int64

// UniqueID returns a short unique string suitable for names.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano()%1e6, atomic.AddInt64(&uniqueCounter, 1))
}
