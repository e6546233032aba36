package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/audit"
	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/hash"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
)

type EmployeeService struct {
	Repo  *repo.GormRepo
	Audit audit.Sink
}

type CreateEmployeeRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      models.Role `json:"role"`
	StoreID   *uint       `json:"store_id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Position  string      `json:"position"`
}

type UpdateEmployeeRequest struct {
	StoreID   *uint   `json:"store_id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Position  *string `json:"position"`
}

// Create provisions the staff user account and its employee record
// together. Admins may target any store; a StoreAdmin only their own.
func (s *EmployeeService) Create(ctx context.Context, caller *authz.CallerContext, req CreateEmployeeRequest) (*models.Employee, error) {
	switch {
	case caller.IsAdmin():
	case caller.Role == models.RoleStoreAdmin:
		if req.StoreID == nil || caller.StoreID == nil || *req.StoreID != *caller.StoreID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return nil, fmt.Errorf("%w: email, password and first name required", ErrValidation)
	}
	switch req.Role {
	case models.RoleEmployee, models.RoleStoreRep, models.RoleStoreAdmin:
	case "":
		req.Role = models.RoleEmployee
	default:
		return nil, fmt.Errorf("%w: role %q is not a staff role", ErrValidation, req.Role)
	}

	if req.StoreID != nil {
		if _, err := s.Repo.GetStore(ctx, *req.StoreID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: store %d does not exist", ErrValidation, *req.StoreID)
			}
			return nil, err
		}
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         req.Role,
		IsActive:     true,
	}
	emp := models.Employee{
		StoreID:   req.StoreID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Position:  req.Position,
	}
	if err := s.Repo.CreateUserWithEmployee(ctx, &user, &emp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	emp.User = &user

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "employee.create",
		Details: map[string]any{"employee_id": emp.ID, "role": req.Role},
	})
	return &emp, nil
}

func (s *EmployeeService) Get(ctx context.Context, caller *authz.CallerContext, id uint) (*models.Employee, error) {
	emp, err := s.Repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.IsAdmin() && !caller.CanMutateEmployee(emp) && emp.UserID != caller.UserID {
		return nil, ErrForbidden
	}
	return emp, nil
}

// List narrows to the caller's store for store-scoped roles.
func (s *EmployeeService) List(ctx context.Context, caller *authz.CallerContext, storeID *uint, limit, offset int) ([]models.Employee, error) {
	switch {
	case caller.IsAdmin():
	case caller.Role.IsStoreScoped():
		if caller.StoreID == nil {
			return []models.Employee{}, nil
		}
		storeID = caller.StoreID
	default:
		return nil, ErrForbidden
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Repo.ListEmployees(ctx, storeID, limit, offset)
}

func (s *EmployeeService) Update(ctx context.Context, caller *authz.CallerContext, id uint, req UpdateEmployeeRequest) (*models.Employee, error) {
	emp, err := s.Repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.CanMutateEmployee(emp) {
		return nil, ErrForbidden
	}

	// Reassigning across stores is admin-only; a StoreAdmin may only detach
	// within their own store.
	if req.StoreID != nil && !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: store reassignment requires admin", ErrForbidden)
	}

	if req.StoreID != nil {
		if _, err := s.Repo.GetStore(ctx, *req.StoreID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: store %d does not exist", ErrValidation, *req.StoreID)
			}
			return nil, err
		}
		emp.StoreID = req.StoreID
	}
	if req.FirstName != nil {
		emp.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		emp.LastName = *req.LastName
	}
	if req.Position != nil {
		emp.Position = *req.Position
	}

	if err := s.Repo.SaveEmployee(ctx, emp); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "employee.update",
		Details: map[string]any{"employee_id": id},
	})
	return emp, nil
}

func (s *EmployeeService) Delete(ctx context.Context, caller *authz.CallerContext, id uint) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}

	if err := s.Repo.DeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "employee.delete",
		Details: map[string]any{"employee_id": id},
	})
	return nil
}
