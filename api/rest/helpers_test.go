package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/santosrp/clanhub/server/api/rest"
	"github.com/santosrp/clanhub/server/api/sse"
	"github.com/santosrp/clanhub/server/audit"
	"github.com/santosrp/clanhub/server/cache"
	"github.com/santosrp/clanhub/server/config"
	"github.com/santosrp/clanhub/server/membership"
	mw "github.com/santosrp/clanhub/server/middleware"
	"github.com/santosrp/clanhub/server/model"
	"github.com/santosrp/clanhub/server/ranking"
	"github.com/santosrp/clanhub/server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testAdminPassword = "admin-pass"

type testServer struct {
	r      *gin.Engine
	db     *gorm.DB
	cache  cache.Cache
	pubsub cache.PubSub
	sec    config.SecurityConfig
}

// newTestServer wires the full API the way main.go does, against an
// in-memory DB and local cache.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: time.Hour}

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	adminCfg := config.AdminConfig{Name: "root", PasswordHash: string(hash)}

	membershipSvc := membership.NewService(db, logger)
	rankingSvc := ranking.NewService(db)
	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })

	sseH := sse.NewHandler(pubsub, c, sec, logger)
	authH := rest.NewAuthHandler(db, c, sec, adminCfg)
	clanH := rest.NewClanHandler(db, membershipSvc, auditSvc)
	requestH := rest.NewJoinRequestHandler(db, membershipSvc, auditSvc)
	announceH := rest.NewAnnouncementHandler(db, sseH, logger)
	rankH := rest.NewRankingHandler(rankingSvc)
	adminH := rest.NewAdminHandler(db, membershipSvc, auditSvc)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/discord", authH.DiscordLogin)
	api.POST("/auth/admin/login", authH.AdminLogin)
	api.POST("/auth/logout", mw.Auth(sec, c), authH.Logout)
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
	r.GET("/sse", sseH.ServeSSE)

	return &testServer{r: r, db: db, cache: c, pubsub: pubsub, sec: sec}
}

// seedClan inserts a clan row directly.
func (ts *testServer) seedClan(t *testing.T, name string) *model.Clan {
	t.Helper()
	clan := &model.Clan{Name: name}
	require.NoError(t, ts.db.Create(clan).Error)
	return clan
}

// seedUser inserts an accepted user row directly.
func (ts *testServer) seedUser(t *testing.T, name, role string, clanID *int64) *model.User {
	t.Helper()
	user := &model.User{Name: name, Role: role, Status: model.StatusAccepted, ClanID: clanID}
	require.NoError(t, ts.db.Create(user).Error)
	return user
}

// tokenFor mints a session token for an existing user row.
func (ts *testServer) tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := mw.GenerateToken(userID, ts.sec.JWTSecret, ts.sec.JWTTTLH)
	require.NoError(t, err)
	require.NoError(t, ts.cache.Set(context.Background(),
		"session:"+token, strconv.FormatInt(userID, 10), ts.sec.JWTTTLH))
	return token
}

func postJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getReq(r *gin.Engine, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func deleteReq(r *gin.Engine, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func bearer(token string) []string {
	return []string{"Authorization", "Bearer " + token}
}
