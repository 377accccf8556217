package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/service"
)

type directoryStoreStub struct {
	actors map[string]*models.Actor
}

func (m *directoryStoreStub) GetActor(ctx context.Context, id string) (*models.Actor, error) {
	actor, ok := m.actors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return actor, nil
}

func (m *directoryStoreStub) GetArea(ctx context.Context, id string) (*models.Area, error) {
	return nil, sql.ErrNoRows
}

func (m *directoryStoreStub) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	return nil, sql.ErrNoRows
}

func (m *directoryStoreStub) ListAreas(ctx context.Context) ([]models.Area, error) {
	return nil, nil
}

func (m *directoryStoreStub) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return nil, nil
}

func (m *directoryStoreStub) ListDepartmentAdmins(ctx context.Context, departmentID string) ([]models.Actor, error) {
	return nil, nil
}

func newActorRouter(store *directoryStoreStub, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	directory := service.NewDirectoryService(store, nil, 0, zap.NewNop())
	r := gin.New()
	chain := append([]gin.HandlerFunc{Actor(directory)}, extra...)
	r.GET("/ping", append(chain, func(c *gin.Context) {
		actor := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"actor": actor.ID})
	})...)
	return r
}

func TestActorMiddlewareMissingHeader(t *testing.T) {
	r := newActorRouter(&directoryStoreStub{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorMiddlewareUnknownActor(t *testing.T) {
	r := newActorRouter(&directoryStoreStub{actors: map[string]*models.Actor{}})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(ActorHeader, "ghost")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorMiddlewareInactiveActor(t *testing.T) {
	r := newActorRouter(&directoryStoreStub{actors: map[string]*models.Actor{
		"actor-1": {ID: "actor-1", Role: models.RoleCitizen, Active: false},
	}})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(ActorHeader, "actor-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorMiddlewareResolvesActor(t *testing.T) {
	r := newActorRouter(&directoryStoreStub{actors: map[string]*models.Actor{
		"actor-1": {ID: "actor-1", Role: models.RoleCitizen, Active: true},
	}})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(ActorHeader, "actor-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "actor-1")
}

func TestRequireRolesBlocksOutsiders(t *testing.T) {
	store := &directoryStoreStub{actors: map[string]*models.Actor{
		"citizen-1":    {ID: "citizen-1", Role: models.RoleCitizen, Active: true},
		"contractor-1": {ID: "contractor-1", Role: models.RoleContractor, Active: true},
	}}
	r := newActorRouter(store, RequireRoles(models.RoleContractor))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(ActorHeader, "citizen-1")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(ActorHeader, "contractor-1")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
