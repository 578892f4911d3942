package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/department"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type departmentRepositoryImpl struct {
	db *database.DB
}

func NewDepartmentRepository(db *database.DB) department.DepartmentRepository {
	return &departmentRepositoryImpl{db: db}
}

const departmentSelect = `
	SELECT d.id, d.name, d.description, d.manager_id, d.budget, d.created_at, d.updated_at,
		m.full_name,
		(SELECT COUNT(*) FROM employees e WHERE e.department_id = d.id AND e.is_active)
	FROM departments d
	LEFT JOIN employees m ON m.id = d.manager_id`

func scanDepartment(row pgx.Row) (department.Department, error) {
	var d department.Department
	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.ManagerID, &d.Budget, &d.CreatedAt, &d.UpdatedAt,
		&d.ManagerName, &d.EmployeeCount,
	)
	return d, err
}

func mapDepartmentWriteError(err error) error {
	if isUniqueViolation(err, "uk_departments_name") {
		return department.ErrDepartmentNameExists
	}
	if isForeignKeyViolation(err) {
		return employee.ErrEmployeeNotFound
	}
	return fmt.Errorf("failed to save department: %w", err)
}

// Create implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) Create(ctx context.Context, d department.Department) (department.Department, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID("department")
	if err != nil {
		return department.Department{}, err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO departments (id, name, description, manager_id, budget, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		id, d.Name, d.Description, d.ManagerID, d.Budget,
	)
	if err != nil {
		return department.Department{}, mapDepartmentWriteError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) GetByID(ctx context.Context, id string) (department.Department, error) {
	q := GetQuerier(ctx, r.db)

	d, err := scanDepartment(q.QueryRow(ctx, departmentSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return department.Department{}, department.ErrDepartmentNotFound
		}
		return department.Department{}, fmt.Errorf("failed to get department: %w", err)
	}
	return d, nil
}

// List implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) List(ctx context.Context) ([]department.Department, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, departmentSelect+` ORDER BY d.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	departments := make([]department.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return departments, nil
}

// Update implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) Update(ctx context.Context, d department.Department) (department.Department, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		UPDATE departments
		SET name = $2, description = $3, manager_id = $4, budget = $5, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Description, d.ManagerID, d.Budget,
	)
	if err != nil {
		return department.Department{}, mapDepartmentWriteError(err)
	}
	if commandTag.RowsAffected() == 0 {
		return department.Department{}, department.ErrDepartmentNotFound
	}
	return r.GetByID(ctx, d.ID)
}

// Delete implements department.DepartmentRepository.
func (r *departmentRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return department.ErrDepartmentNotFound
	}
	return nil
}
