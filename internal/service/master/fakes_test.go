package master

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/department"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/designation"
	"github.com/google/uuid"
)

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memDepartmentRepo struct {
	mu          sync.Mutex
	departments map[string]department.Department
}

func (r *memDepartmentRepo) Create(ctx context.Context, d department.Department) (department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.departments {
		if existing.Name == d.Name {
			return department.Department{}, department.ErrDepartmentNameExists
		}
	}
	d.ID = uuid.Must(uuid.NewV7()).String()
	r.departments[d.ID] = d
	return d, nil
}

func (r *memDepartmentRepo) GetByID(ctx context.Context, id string) (department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.departments[id]
	if !ok {
		return department.Department{}, department.ErrDepartmentNotFound
	}
	return d, nil
}

func (r *memDepartmentRepo) List(ctx context.Context) ([]department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]department.Department, 0, len(r.departments))
	for _, d := range r.departments {
		out = append(out, d)
	}
	return out, nil
}

func (r *memDepartmentRepo) Update(ctx context.Context, d department.Department) (department.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[d.ID]; !ok {
		return department.Department{}, department.ErrDepartmentNotFound
	}
	r.departments[d.ID] = d
	return d, nil
}

func (r *memDepartmentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[id]; !ok {
		return department.ErrDepartmentNotFound
	}
	delete(r.departments, id)
	return nil
}

type memDesignationRepo struct {
	mu           sync.Mutex
	designations map[string]designation.Designation
}

func (r *memDesignationRepo) Create(ctx context.Context, d designation.Designation) (designation.Designation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.designations {
		if existing.Title == d.Title {
			return designation.Designation{}, designation.ErrDesignationTitleExists
		}
	}
	d.ID = uuid.Must(uuid.NewV7()).String()
	r.designations[d.ID] = d
	return d, nil
}

func (r *memDesignationRepo) GetByID(ctx context.Context, id string) (designation.Designation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.designations[id]
	if !ok {
		return designation.Designation{}, designation.ErrDesignationNotFound
	}
	return d, nil
}

func (r *memDesignationRepo) List(ctx context.Context) ([]designation.Designation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]designation.Designation, 0, len(r.designations))
	for _, d := range r.designations {
		out = append(out, d)
	}
	return out, nil
}

func (r *memDesignationRepo) Update(ctx context.Context, d designation.Designation) (designation.Designation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.designations[d.ID]; !ok {
		return designation.Designation{}, designation.ErrDesignationNotFound
	}
	r.designations[d.ID] = d
	return d, nil
}

func (r *memDesignationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.designations[id]; !ok {
		return designation.ErrDesignationNotFound
	}
	delete(r.designations, id)
	return nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *memAuditRepo) Record(ctx context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memAuditRepo) List(ctx context.Context, filter audit.AuditFilter) ([]audit.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries, int64(len(r.entries)), nil
}
