package department

import "context"

type DepartmentRepository interface {
	Create(ctx context.Context, department Department) (Department, error)
	GetByID(ctx context.Context, id string) (Department, error)
	List(ctx context.Context) ([]Department, error)
	Update(ctx context.Context, department Department) (Department, error)
	// Delete detaches member employees rather than refusing.
	Delete(ctx context.Context, id string) error
}
