package postgresql_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewUserRepository(db)
	emp := createTestEmployee(t, ctx, db, "Kai Lindqvist")

	created, err := repo.Create(ctx, user.User{
		Email:        "kai@example.com",
		PasswordHash: "hash",
		Role:         user.RoleEmployee,
		EmployeeID:   &emp.ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)

	byEmail, err := repo.GetByEmail(ctx, "kai@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	require.NotNil(t, byEmail.EmployeeID)
	assert.Equal(t, emp.ID, *byEmail.EmployeeID)

	exists, err := repo.ExistsByEmail(ctx, "kai@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByID(ctx, "0196b1a4-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestUserRepository_Constraints(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewUserRepository(db)
	emp := createTestEmployee(t, ctx, db, "Noor Haddad")

	_, err := repo.Create(ctx, user.User{Email: "noor@example.com", PasswordHash: "hash", Role: user.RoleEmployee, EmployeeID: &emp.ID})
	require.NoError(t, err)

	_, err = repo.Create(ctx, user.User{Email: "noor@example.com", PasswordHash: "hash", Role: user.RoleEmployee})
	assert.ErrorIs(t, err, user.ErrUserEmailExists)

	_, err = repo.Create(ctx, user.User{Email: "second@example.com", PasswordHash: "hash", Role: user.RoleEmployee, EmployeeID: &emp.ID})
	assert.ErrorIs(t, err, user.ErrEmployeeLinkTaken)

	missing := "0196b1a4-0000-7000-8000-000000000001"
	_, err = repo.Create(ctx, user.User{Email: "third@example.com", PasswordHash: "hash", Role: user.RoleEmployee, EmployeeID: &missing})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
