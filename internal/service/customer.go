package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/audit"
	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
)

type CustomerService struct {
	Repo  *repo.GormRepo
	Audit audit.Sink
}

type CustomerRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// Create records a walk-in customer without a user account, stamped with
// the creating staff member's email.
func (s *CustomerService) Create(ctx context.Context, caller *authz.CallerContext, req CustomerRequest) (*models.Customer, error) {
	if !caller.IsAdmin() && !caller.Role.IsStoreScoped() {
		return nil, ErrForbidden
	}
	if req.FirstName == nil || *req.FirstName == "" {
		return nil, fmt.Errorf("%w: first name required", ErrValidation)
	}

	cust := models.Customer{
		FirstName: *req.FirstName,
		CreatedBy: caller.Email,
	}
	if req.LastName != nil {
		cust.LastName = *req.LastName
	}
	if req.Email != nil {
		cust.Email = *req.Email
	}
	if req.Phone != nil {
		cust.Phone = *req.Phone
	}

	if err := s.Repo.CreateCustomer(ctx, &cust); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "customer.create",
		Details: map[string]any{"customer_id": cust.ID},
	})
	return &cust, nil
}

func (s *CustomerService) Get(ctx context.Context, caller *authz.CallerContext, id uint) (*models.Customer, error) {
	cust, err := s.Repo.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.CanMutateCustomer(cust) {
		return nil, ErrForbidden
	}
	return cust, nil
}

// List: admins see everyone, staff see records they created, customers see
// nothing here (their profile lives under /auth).
func (s *CustomerService) List(ctx context.Context, caller *authz.CallerContext, limit, offset int) ([]models.Customer, error) {
	createdBy := ""
	switch {
	case caller.IsAdmin():
	case caller.Role.IsStoreScoped():
		createdBy = caller.Email
	default:
		return nil, ErrForbidden
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Repo.ListCustomers(ctx, createdBy, limit, offset)
}

func (s *CustomerService) Update(ctx context.Context, caller *authz.CallerContext, id uint, req CustomerRequest) (*models.Customer, error) {
	cust, err := s.Repo.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.CanMutateCustomer(cust) {
		return nil, ErrForbidden
	}

	if req.FirstName != nil {
		cust.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		cust.LastName = *req.LastName
	}
	if req.Email != nil {
		cust.Email = *req.Email
	}
	if req.Phone != nil {
		cust.Phone = *req.Phone
	}

	if err := s.Repo.SaveCustomer(ctx, cust); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "customer.update",
		Details: map[string]any{"customer_id": id},
	})
	return cust, nil
}

func (s *CustomerService) Delete(ctx context.Context, caller *authz.CallerContext, id uint) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}

	if err := s.Repo.DeleteCustomer(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "customer.delete",
		Details: map[string]any{"customer_id": id},
	})
	return nil
}
