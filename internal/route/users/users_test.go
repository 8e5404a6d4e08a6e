package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoGangH/logit-admin/internal/config"
	"github.com/GoGangH/logit-admin/internal/model"
	"github.com/GoGangH/logit-admin/internal/registry/clients"
	registryroute "github.com/GoGangH/logit-admin/internal/registry/route"
	"github.com/GoGangH/logit-admin/internal/security"
	"github.com/GoGangH/logit-admin/internal/store/postgres"
	"github.com/GoGangH/logit-admin/internal/vector/vectortest"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	router *gin.Engine
	cfg    *config.Config
	db     *gorm.DB
	vec    *vectortest.FakeStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.Question{},
		&model.Chat{},
		&model.Subscription{},
	))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		_ = sqlDB.Close()
	})

	cfg := config.DefaultConfig()
	cfg.DevMCPSecret = "unit-test-secret"

	vec := vectortest.New()
	registry := clients.NewStatic(map[config.Env]clients.Pair{
		config.EnvDev: {Store: postgres.NewWithDB(db), Vector: vec},
	}, false)

	router := gin.New()
	deps := registryroute.Deps{Config: &cfg, Clients: registry}
	for _, loader := range registryroute.MainRouteLoaders() {
		require.NoError(t, loader(router, deps))
	}
	return &testEnv{router: router, cfg: &cfg, db: db, vec: vec}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedUser(t *testing.T, email string) model.User {
	t.Helper()
	u := model.User{ID: uuid.New(), Email: email, IsActive: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetUserInvalidID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/users/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUserNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/users/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUserExperienceCountDegrades(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "degrade@example.com")
	env.vec.Unavailable = true

	rec := env.do(t, http.MethodGet, "/users/"+u.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 0, body["experience_count"])
	assert.Equal(t, u.Email, body["email"])
}

func TestPatchUserRequiresIsActive(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "patch@example.com")

	rec := env.do(t, http.MethodPatch, "/users/"+u.ID.String(), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/users/"+u.ID.String(), map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["is_active"])
}

func TestCreateUserExperience(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "exp@example.com")

	rec := env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/experiences", map[string]any{
		"title":     "Shipped the billing migration",
		"format":    "STAR",
		"situation": "Legacy billing was failing",
		"task":      "Migrate without downtime",
		"action":    "Dual-wrote and cut over",
		"result":    "Zero missed invoices",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, u.ID.String(), body["user_id"])
	assert.Equal(t, "STAR", body["format"])
	assert.NotEmpty(t, body["created_at"])
	assert.Equal(t, body["created_at"], body["updated_at"])

	require.Equal(t, 1, env.vec.Len())
	id, ok := body["id"].(string)
	require.True(t, ok)
	embedding := env.vec.Vector(id)
	require.Len(t, embedding, env.cfg.EmbeddingDimension)
	for _, v := range embedding {
		assert.Zero(t, v)
	}
}

func TestCreateUserExperienceRejectsBadEnum(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "badenum@example.com")

	rec := env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/experiences", map[string]any{
		"title":           "x",
		"experience_type": "freelance",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserExperienceVectorDown(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "down@example.com")
	env.vec.Unavailable = true

	rec := env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/experiences", map[string]any{
		"title": "x",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDeleteUserExperiences(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "delexp@example.com")

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/experiences", map[string]any{
			"title": fmt.Sprintf("experience %d", i),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	require.Equal(t, 3, env.vec.Len())

	// An explicit empty list is a client mistake, not a wipe request.
	rec := env.do(t, http.MethodDelete, "/users/"+u.ID.String()+"/experiences", map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// null ids wipes everything the user owns.
	rec = env.do(t, http.MethodDelete, "/users/"+u.ID.String()+"/experiences", map[string]any{"ids": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.vec.Len())
}

func TestIssueSubscription(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "mcp@example.com")

	rec := env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/subscription", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	token, ok := body["token"].(string)
	require.True(t, ok)
	claims, err := security.ParseMCPToken(env.cfg.DevMCPSecret, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.Subject)
	assert.Equal(t, "mcp", claims.Type)

	sub, ok := body["subscription"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, model.SubscriptionTypeMCP, sub["type"])
	assert.Equal(t, true, sub["is_active"])

	// Issuing again renews the same row.
	rec = env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/subscription", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/users/"+u.ID.String()+"/subscription", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	data, ok := list["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestIssueSubscriptionWrongEnv(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "wrongenv@example.com")
	env.cfg.MCPIssuanceEnv = config.EnvProduction

	rec := env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/subscription", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIssueSubscriptionSecretMissing(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "nosecret@example.com")
	env.cfg.DevMCPSecret = ""

	rec := env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/subscription", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueSubscriptionUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users/"+uuid.NewString()+"/subscription", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUserCleansExperiences(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "cascade@example.com")

	rec := env.do(t, http.MethodPost, "/users/"+u.ID.String()+"/experiences", map[string]any{"title": "x"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/users/"+u.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.vec.Len())

	rec = env.do(t, http.MethodGet, "/users/"+u.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUserChatsDefaultLimit(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "chats@example.com")

	p := model.Project{ID: uuid.New(), UserID: u.ID, Company: "Acme", JobPosition: "Engineer", CreatedAt: time.Now().UTC()}
	require.NoError(t, env.db.Create(&p).Error)
	q := model.Question{ID: uuid.New(), ProjectID: p.ID, UserID: u.ID, Question: "Q", CreatedAt: time.Now().UTC()}
	require.NoError(t, env.db.Create(&q).Error)
	for i := 0; i < 35; i++ {
		chat := model.Chat{
			ID:         uuid.Must(uuid.NewV7()),
			QuestionID: q.ID,
			ProjectID:  p.ID,
			UserID:     u.ID,
			Role:       model.ChatRoleUser,
			Content:    "m",
			CreatedAt:  time.Now().UTC(),
		}
		require.NoError(t, env.db.Create(&chat).Error)
	}

	rec := env.do(t, http.MethodGet, "/users/"+u.ID.String()+"/chats?questionId="+q.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 30)
	assert.Equal(t, true, body["hasMore"])
}

func TestListUsersFilterPassthrough(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "on@example.com")
	off := env.seedUser(t, "off@example.com")
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", off.ID).Update("is_active", false).Error)

	rec := env.do(t, http.MethodGet, "/users?isActive=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	first, ok := data[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "off@example.com", first["email"])
}
