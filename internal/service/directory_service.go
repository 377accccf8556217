package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

type directoryStore interface {
	GetActor(ctx context.Context, id string) (*models.Actor, error)
	GetArea(ctx context.Context, id string) (*models.Area, error)
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	ListAreas(ctx context.Context) ([]models.Area, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListDepartmentAdmins(ctx context.Context, departmentID string) ([]models.Actor, error)
}

// DirectoryService resolves actor ids into actor records and serves the
// area and department reference data. Resolved actors are cached briefly;
// the directory is the only identity surface, credentials never pass
// through here.
type DirectoryService struct {
	store    directoryStore
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDirectoryService constructs the service. redis may be nil.
func NewDirectoryService(store directoryStore, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *DirectoryService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &DirectoryService{store: store, redis: redisClient, cacheTTL: cacheTTL, logger: logger}
}

func actorCacheKey(id string) string {
	return fmt.Sprintf("directory:actor:%s", id)
}

// ResolveActor maps an actor id from the request edge to a directory
// record. Unknown or inactive actors resolve to an unidentified error.
func (s *DirectoryService) ResolveActor(ctx context.Context, id string) (*models.Actor, error) {
	if id == "" {
		return nil, appErrors.ErrUnidentified
	}
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, actorCacheKey(id)).Bytes(); err == nil {
			var actor models.Actor
			if err := json.Unmarshal(cached, &actor); err == nil {
				if !actor.Active {
					return nil, appErrors.ErrUnidentified
				}
				return &actor, nil
			}
		}
	}

	actor, err := s.store.GetActor(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnidentified
		}
		return nil, appErrors.Internal(err, "resolve actor")
	}
	if s.redis != nil {
		if payload, err := json.Marshal(actor); err == nil {
			if err := s.redis.Set(ctx, actorCacheKey(id), payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("actor cache write failed", zap.Error(err))
			}
		}
	}
	if !actor.Active {
		return nil, appErrors.ErrUnidentified
	}
	return actor, nil
}

// RequireActiveArea loads an area and rejects inactive references. New
// delegations must target active reference entities; in-flight work keeps
// its existing references.
func (s *DirectoryService) RequireActiveArea(ctx context.Context, id string) (*models.Area, error) {
	area, err := s.store.GetArea(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "area not found")
		}
		return nil, appErrors.Internal(err, "load area")
	}
	if !area.Active {
		return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "area is inactive")
	}
	return area, nil
}

// RequireActiveDepartment loads a department and rejects inactive references.
func (s *DirectoryService) RequireActiveDepartment(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.store.GetDepartment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "department not found")
		}
		return nil, appErrors.Internal(err, "load department")
	}
	if !department.Active {
		return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "department is inactive")
	}
	return department, nil
}

// GetActor loads an actor without the active gate, for assignment targets
// and read surfaces.
func (s *DirectoryService) GetActor(ctx context.Context, id string) (*models.Actor, error) {
	actor, err := s.store.GetActor(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "actor not found")
		}
		return nil, appErrors.Internal(err, "load actor")
	}
	return actor, nil
}

// ListAreas returns the area register.
func (s *DirectoryService) ListAreas(ctx context.Context) ([]models.Area, error) {
	areas, err := s.store.ListAreas(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "list areas")
	}
	return areas, nil
}

// ListDepartments returns the department register.
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.store.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "list departments")
	}
	return departments, nil
}

// ListDepartmentAdmins returns the active admins of a department.
func (s *DirectoryService) ListDepartmentAdmins(ctx context.Context, departmentID string) ([]models.Actor, error) {
	return s.store.ListDepartmentAdmins(ctx, departmentID)
}
