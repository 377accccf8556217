package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/opencivic/civicflow-api/internal/models"
)

// DirectoryRepository resolves actors, areas, departments, and their
// administrative relationships. Leaf dependency for authorization.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// GetActor fetches an actor by identifier.
func (r *DirectoryRepository) GetActor(ctx context.Context, id string) (*models.Actor, error) {
	const query = `SELECT id, full_name, role, area_id, department_id, active, created_at
	FROM actors WHERE id = $1`
	var actor models.Actor
	if err := r.db.GetContext(ctx, &actor, query, id); err != nil {
		return nil, err
	}
	return &actor, nil
}

// GetArea fetches an area by identifier.
func (r *DirectoryRepository) GetArea(ctx context.Context, id string) (*models.Area, error) {
	const query = `SELECT id, code, name, active FROM areas WHERE id = $1`
	var area models.Area
	if err := r.db.GetContext(ctx, &area, query, id); err != nil {
		return nil, err
	}
	return &area, nil
}

// GetDepartment fetches a department by identifier.
func (r *DirectoryRepository) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, code, name, area_id, active FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// ListAreas returns all active areas ordered by code.
func (r *DirectoryRepository) ListAreas(ctx context.Context) ([]models.Area, error) {
	const query = `SELECT id, code, name, active FROM areas WHERE active ORDER BY code ASC`
	var areas []models.Area
	if err := r.db.SelectContext(ctx, &areas, query); err != nil {
		return nil, err
	}
	return areas, nil
}

// ListDepartments returns all active departments ordered by code.
func (r *DirectoryRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, code, name, area_id, active FROM departments WHERE active ORDER BY code ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, err
	}
	return departments, nil
}

// ListDepartmentAdmins returns the active department admins for a department.
// Used by the dispatcher to fan out completion notifications.
func (r *DirectoryRepository) ListDepartmentAdmins(ctx context.Context, departmentID string) ([]models.Actor, error) {
	const query = `SELECT id, full_name, role, area_id, department_id, active, created_at
	FROM actors WHERE role = $1 AND department_id = $2 AND active
	ORDER BY full_name ASC`
	var admins []models.Actor
	if err := r.db.SelectContext(ctx, &admins, query, models.RoleDepartmentAdmin, departmentID); err != nil {
		return nil, err
	}
	return admins, nil
}
