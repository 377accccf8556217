package models

import "time"

// ActorRole enumerates the mutually exclusive roles an actor can hold.
type ActorRole string

const (
	RoleCitizen         ActorRole = "CITIZEN"
	RolePlatformAdmin   ActorRole = "PLATFORM_ADMIN"
	RoleAreaSupervisor  ActorRole = "AREA_SUPERVISOR"
	RoleDepartmentAdmin ActorRole = "DEPARTMENT_ADMIN"
	RoleContractor      ActorRole = "CONTRACTOR"
)

// Actor is a participant resolved through the directory. Credentials are
// issued and verified outside this service; the actor id arrives on every
// request and is resolved into this struct.
type Actor struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         ActorRole `db:"role" json:"role"`
	AreaID       *string   `db:"area_id" json:"area_id,omitempty"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SupervisesArea reports whether the actor is the supervisor of the area.
func (a *Actor) SupervisesArea(areaID *string) bool {
	if a == nil || areaID == nil || a.AreaID == nil {
		return false
	}
	return a.Role == RoleAreaSupervisor && *a.AreaID == *areaID
}

// AdministersDepartment reports whether the actor is an admin of the department.
func (a *Actor) AdministersDepartment(departmentID *string) bool {
	if a == nil || departmentID == nil || a.DepartmentID == nil {
		return false
	}
	return a.Role == RoleDepartmentAdmin && *a.DepartmentID == *departmentID
}

// Area is a reference entity; referenced, never owned, by workflow records.
type Area struct {
	ID     string `db:"id" json:"id"`
	Code   string `db:"code" json:"code"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

// Department is a reference entity optionally scoped to an area.
type Department struct {
	ID     string  `db:"id" json:"id"`
	Code   string  `db:"code" json:"code"`
	Name   string  `db:"name" json:"name"`
	AreaID *string `db:"area_id" json:"area_id,omitempty"`
	Active bool    `db:"active" json:"active"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
