package experiences

import (
	"context"
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
	"github.com/GoGangH/logit-admin/internal/store/postgres"
	"github.com/GoGangH/logit-admin/internal/vector"
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
	require.NoError(t, db.AutoMigrate(&model.User{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		_ = sqlDB.Close()
	})

	cfg := config.DefaultConfig()
	vec := vectortest.New()
	registry := clients.NewStatic(map[config.Env]clients.Pair{
		config.EnvDev: {Store: postgres.NewWithDB(db), Vector: vec},
	}, false)

	router := gin.New()
	deps := registryroute.Deps{Config: &cfg, Clients: registry}
	for _, loader := range registryroute.MainRouteLoaders() {
		require.NoError(t, loader(router, deps))
	}
	return &testEnv{router: router, db: db, vec: vec}
}

func (e *testEnv) seedUser(t *testing.T, email, name string) model.User {
	t.Helper()
	u := model.User{ID: uuid.New(), Email: email, FullName: &name, IsActive: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) seedPoint(t *testing.T, userID uuid.UUID, title string) string {
	t.Helper()
	id := uuid.NewString()
	err := e.vec.Upsert(context.Background(), vector.Point{
		ID: id,
		Payload: map[string]any{
			"user_id": userID.String(),
			"title":   title,
			"format":  "STAR",
		},
	}, make([]float32, 4))
	require.NoError(t, err)
	return id
}

func getJSON(t *testing.T, router *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestListExperiencesSearchTotals(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice@example.com", "Alice Kim")
	env.seedPoint(t, alice.ID, "golang migration")
	env.seedPoint(t, alice.ID, "react frontend")
	env.seedPoint(t, alice.ID, "data pipelines")

	code, body := getJSON(t, env.router, "/experiences")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 1, body["totalPages"])

	// A search narrows the totals to the matches on the fetched page.
	code, body = getJSON(t, env.router, "/experiences?search=golang")
	require.Equal(t, http.StatusOK, code)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["totalPages"])

	code, body = getJSON(t, env.router, "/experiences?search=nothing-matches")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["total"])
	assert.EqualValues(t, 1, body["totalPages"])
}

func TestListExperiencesSearchMatchesOwnerEmail(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice@example.com", "Alice Kim")
	bob := env.seedUser(t, "bob@example.com", "Bob Lee")
	env.seedPoint(t, alice.ID, "first")
	env.seedPoint(t, bob.ID, "second")

	code, body := getJSON(t, env.router, "/experiences?search=bob@")
	require.Equal(t, http.StatusOK, code)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.EqualValues(t, 1, body["total"])
}

func TestGetExperienceEnrichment(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice@example.com", "Alice Kim")
	id := env.seedPoint(t, alice.ID, "billing migration")

	code, body := getJSON(t, env.router, "/experiences/"+id)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "billing migration", body["title"])
	assert.Equal(t, "alice@example.com", body["user_email"])
	assert.Equal(t, "Alice Kim", body["user_name"])
}

func TestGetExperienceNotFound(t *testing.T) {
	env := newTestEnv(t)
	code, _ := getJSON(t, env.router, "/experiences/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, code)
}
