package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/audit"
	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/logging"
	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
)

type StoreService struct {
	Repo  *repo.GormRepo
	Audit audit.Sink
}

type StoreRequest struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	AdminEmail *string `json:"admin_email"`
	IsActive   *bool   `json:"is_active"`
}

func (s *StoreService) Create(ctx context.Context, caller *authz.CallerContext, req StoreRequest) (*models.Store, error) {
	if caller.Role != models.RoleSuperAdmin {
		return nil, ErrForbidden
	}
	if req.Name == nil || *req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	store := models.Store{
		Name:     *req.Name,
		IsActive: true,
	}
	if req.Phone != nil {
		store.Phone = *req.Phone
	}
	if req.Address != nil {
		store.Address = *req.Address
	}
	if req.AdminEmail != nil {
		store.AdminEmail = *req.AdminEmail
	}

	if err := s.Repo.CreateStore(ctx, &store); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "store.create",
		Details: map[string]any{"store_id": store.ID},
	})
	return &store, nil
}

func (s *StoreService) Get(ctx context.Context, id uint) (*models.Store, error) {
	store, err := s.Repo.GetStore(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return store, nil
}

func (s *StoreService) List(ctx context.Context, limit, offset int) ([]models.Store, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Repo.ListStores(ctx, limit, offset)
}

// Update lets a SuperAdmin change anything; the assigned StoreAdmin may
// touch only contact fields of their own store.
func (s *StoreService) Update(ctx context.Context, caller *authz.CallerContext, id uint, req StoreRequest) (*models.Store, error) {
	l := logging.FromContext(ctx).With("svc", "store.update", "store_id", id)

	store, err := s.Repo.GetStore(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.CanMutateStore(store) {
		l.Warn("update_rejected", "status", 403)
		return nil, ErrForbidden
	}

	superAdmin := caller.Role == models.RoleSuperAdmin
	if !superAdmin && (req.AdminEmail != nil || req.IsActive != nil || req.Name != nil) {
		return nil, fmt.Errorf("%w: field not allowed for this role", ErrForbidden)
	}

	if req.Name != nil {
		store.Name = *req.Name
	}
	if req.Phone != nil {
		store.Phone = *req.Phone
	}
	if req.Address != nil {
		store.Address = *req.Address
	}
	if req.AdminEmail != nil {
		store.AdminEmail = *req.AdminEmail
	}
	if req.IsActive != nil {
		store.IsActive = *req.IsActive
	}

	if err := s.Repo.SaveStore(ctx, store); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "store.update",
		Details: map[string]any{"store_id": id},
	})
	return store, nil
}

// Delete refuses while the store still has employees.
func (s *StoreService) Delete(ctx context.Context, caller *authz.CallerContext, id uint) error {
	if caller.Role != models.RoleSuperAdmin {
		return ErrForbidden
	}

	count, err := s.Repo.CountStoreEmployees(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: store still has %d employees", ErrConflict, count)
	}

	if err := s.Repo.DeleteStore(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "store.delete",
		Details: map[string]any{"store_id": id},
	})
	return nil
}
