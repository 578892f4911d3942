package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/designation"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type designationRepositoryImpl struct {
	db *database.DB
}

func NewDesignationRepository(db *database.DB) designation.DesignationRepository {
	return &designationRepositoryImpl{db: db}
}

const designationColumns = `id, title, description, created_at, updated_at`

func scanDesignation(row pgx.Row) (designation.Designation, error) {
	var d designation.Designation
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// Create implements designation.DesignationRepository.
func (r *designationRepositoryImpl) Create(ctx context.Context, d designation.Designation) (designation.Designation, error) {
	q := GetQuerier(ctx, r.db)

	id, err := newID("designation")
	if err != nil {
		return designation.Designation{}, err
	}

	created, err := scanDesignation(q.QueryRow(ctx, `
		INSERT INTO designations (id, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING `+designationColumns, id, d.Title, d.Description))
	if err != nil {
		if isUniqueViolation(err, "uk_designations_title") {
			return designation.Designation{}, designation.ErrDesignationTitleExists
		}
		return designation.Designation{}, fmt.Errorf("failed to create designation: %w", err)
	}
	return created, nil
}

// GetByID implements designation.DesignationRepository.
func (r *designationRepositoryImpl) GetByID(ctx context.Context, id string) (designation.Designation, error) {
	q := GetQuerier(ctx, r.db)

	d, err := scanDesignation(q.QueryRow(ctx, `SELECT `+designationColumns+` FROM designations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return designation.Designation{}, designation.ErrDesignationNotFound
		}
		return designation.Designation{}, fmt.Errorf("failed to get designation: %w", err)
	}
	return d, nil
}

// List implements designation.DesignationRepository.
func (r *designationRepositoryImpl) List(ctx context.Context) ([]designation.Designation, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+designationColumns+` FROM designations ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list designations: %w", err)
	}
	defer rows.Close()

	designations := make([]designation.Designation, 0)
	for rows.Next() {
		d, err := scanDesignation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan designation: %w", err)
		}
		designations = append(designations, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return designations, nil
}

// Update implements designation.DesignationRepository.
func (r *designationRepositoryImpl) Update(ctx context.Context, d designation.Designation) (designation.Designation, error) {
	q := GetQuerier(ctx, r.db)

	updated, err := scanDesignation(q.QueryRow(ctx, `
		UPDATE designations
		SET title = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+designationColumns, d.ID, d.Title, d.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return designation.Designation{}, designation.ErrDesignationNotFound
		}
		if isUniqueViolation(err, "uk_designations_title") {
			return designation.Designation{}, designation.ErrDesignationTitleExists
		}
		return designation.Designation{}, fmt.Errorf("failed to update designation: %w", err)
	}
	return updated, nil
}

// Delete implements designation.DesignationRepository.
func (r *designationRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM designations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete designation: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return designation.ErrDesignationNotFound
	}
	return nil
}
