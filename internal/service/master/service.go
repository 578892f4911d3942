package master

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/department"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/master/designation"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
)

type MasterService interface {
	// Department operations
	CreateDepartment(ctx context.Context, caller user.Caller, req department.DepartmentRequest) (department.DepartmentResponse, error)
	GetDepartment(ctx context.Context, caller user.Caller, id string) (department.DepartmentResponse, error)
	ListDepartments(ctx context.Context, caller user.Caller) ([]department.DepartmentResponse, error)
	UpdateDepartment(ctx context.Context, caller user.Caller, id string, req department.DepartmentRequest) (department.DepartmentResponse, error)
	DeleteDepartment(ctx context.Context, caller user.Caller, id string) error

	// Designation operations
	CreateDesignation(ctx context.Context, caller user.Caller, req designation.DesignationRequest) (designation.DesignationResponse, error)
	GetDesignation(ctx context.Context, caller user.Caller, id string) (designation.DesignationResponse, error)
	ListDesignations(ctx context.Context, caller user.Caller) ([]designation.DesignationResponse, error)
	UpdateDesignation(ctx context.Context, caller user.Caller, id string, req designation.DesignationRequest) (designation.DesignationResponse, error)
	DeleteDesignation(ctx context.Context, caller user.Caller, id string) error
}

type masterServiceImpl struct {
	txManager       database.Transactor
	departmentRepo  department.DepartmentRepository
	designationRepo designation.DesignationRepository
	auditRepo       audit.AuditRepository
}

func NewMasterService(
	txManager database.Transactor,
	departmentRepo department.DepartmentRepository,
	designationRepo designation.DesignationRepository,
	auditRepo audit.AuditRepository,
) MasterService {
	return &masterServiceImpl{
		txManager:       txManager,
		departmentRepo:  departmentRepo,
		designationRepo: designationRepo,
		auditRepo:       auditRepo,
	}
}

// canRead admits any authenticated caller. Reference data is visible to everyone with an account.
func canRead(caller user.Caller) bool {
	return caller.UserID != ""
}

// ==================== DEPARTMENT OPERATIONS ====================

func (s *masterServiceImpl) CreateDepartment(ctx context.Context, caller user.Caller, req department.DepartmentRequest) (department.DepartmentResponse, error) {
	if !caller.Can(user.PermissionMasterManage) {
		return department.DepartmentResponse{}, user.ErrInsufficientPermissions
	}
	if err := req.Validate(); err != nil {
		return department.DepartmentResponse{}, err
	}

	created, err := s.departmentRepo.Create(ctx, department.Department{
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		Budget:      req.BudgetAmount,
	})
	if err != nil {
		return department.DepartmentResponse{}, err
	}

	slog.Info("department created", "department_id", created.ID, "created_by", caller.UserID)
	return department.NewDepartmentResponse(created), nil
}

func (s *masterServiceImpl) GetDepartment(ctx context.Context, caller user.Caller, id string) (department.DepartmentResponse, error) {
	if !canRead(caller) {
		return department.DepartmentResponse{}, user.ErrInsufficientPermissions
	}

	d, err := s.departmentRepo.GetByID(ctx, id)
	if err != nil {
		return department.DepartmentResponse{}, err
	}
	return department.NewDepartmentResponse(d), nil
}

func (s *masterServiceImpl) ListDepartments(ctx context.Context, caller user.Caller) ([]department.DepartmentResponse, error) {
	if !canRead(caller) {
		return nil, user.ErrInsufficientPermissions
	}

	departments, err := s.departmentRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]department.DepartmentResponse, 0, len(departments))
	for _, d := range departments {
		responses = append(responses, department.NewDepartmentResponse(d))
	}
	return responses, nil
}

func (s *masterServiceImpl) UpdateDepartment(ctx context.Context, caller user.Caller, id string, req department.DepartmentRequest) (department.DepartmentResponse, error) {
	if !caller.Can(user.PermissionMasterManage) {
		return department.DepartmentResponse{}, user.ErrInsufficientPermissions
	}
	if err := req.Validate(); err != nil {
		return department.DepartmentResponse{}, err
	}

	updated, err := s.departmentRepo.Update(ctx, department.Department{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		Budget:      req.BudgetAmount,
	})
	if err != nil {
		return department.DepartmentResponse{}, err
	}
	return department.NewDepartmentResponse(updated), nil
}

// DeleteDepartment detaches member employees and records who removed the department.
func (s *masterServiceImpl) DeleteDepartment(ctx context.Context, caller user.Caller, id string) error {
	if !caller.Can(user.PermissionMasterManage) {
		return user.ErrInsufficientPermissions
	}

	return s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.departmentRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.departmentRepo.Delete(txCtx, id); err != nil {
			return err
		}

		details := map[string]any{
			"name":               existing.Name,
			"detached_employees": existing.EmployeeCount,
		}
		return s.auditRepo.Record(txCtx, audit.NewEntry(caller, audit.ActionDepartmentDelete, "department", id, details))
	})
}

// ==================== DESIGNATION OPERATIONS ====================

func (s *masterServiceImpl) CreateDesignation(ctx context.Context, caller user.Caller, req designation.DesignationRequest) (designation.DesignationResponse, error) {
	if !caller.Can(user.PermissionMasterManage) {
		return designation.DesignationResponse{}, user.ErrInsufficientPermissions
	}
	if err := req.Validate(); err != nil {
		return designation.DesignationResponse{}, err
	}

	created, err := s.designationRepo.Create(ctx, designation.Designation{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return designation.DesignationResponse{}, err
	}
	return designation.NewDesignationResponse(created), nil
}

func (s *masterServiceImpl) GetDesignation(ctx context.Context, caller user.Caller, id string) (designation.DesignationResponse, error) {
	if !canRead(caller) {
		return designation.DesignationResponse{}, user.ErrInsufficientPermissions
	}

	d, err := s.designationRepo.GetByID(ctx, id)
	if err != nil {
		return designation.DesignationResponse{}, err
	}
	return designation.NewDesignationResponse(d), nil
}

func (s *masterServiceImpl) ListDesignations(ctx context.Context, caller user.Caller) ([]designation.DesignationResponse, error) {
	if !canRead(caller) {
		return nil, user.ErrInsufficientPermissions
	}

	designations, err := s.designationRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]designation.DesignationResponse, 0, len(designations))
	for _, d := range designations {
		responses = append(responses, designation.NewDesignationResponse(d))
	}
	return responses, nil
}

func (s *masterServiceImpl) UpdateDesignation(ctx context.Context, caller user.Caller, id string, req designation.DesignationRequest) (designation.DesignationResponse, error) {
	if !caller.Can(user.PermissionMasterManage) {
		return designation.DesignationResponse{}, user.ErrInsufficientPermissions
	}
	if err := req.Validate(); err != nil {
		return designation.DesignationResponse{}, err
	}

	updated, err := s.designationRepo.Update(ctx, designation.Designation{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return designation.DesignationResponse{}, err
	}
	return designation.NewDesignationResponse(updated), nil
}

func (s *masterServiceImpl) DeleteDesignation(ctx context.Context, caller user.Caller, id string) error {
	if !caller.Can(user.PermissionMasterManage) {
		return user.ErrInsufficientPermissions
	}

	return s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.designationRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.designationRepo.Delete(txCtx, id); err != nil {
			return err
		}
		return s.auditRepo.Record(txCtx, audit.NewEntry(caller, audit.ActionDesignationDelete, "designation", id,
			map[string]any{"title": existing.Title}))
	})
}
