package service

import (
	"context"
	"time"

	"github.com/retailpos/backoffice/internal/authz"
	"github.com/retailpos/backoffice/internal/repo"
)

// StatsService is read-side reporting only; no invariants live here.
type StatsService struct {
	Repo *repo.GormRepo
}

// scope returns the store filter the caller is allowed to aggregate over.
// Admins may pass any store (or none), store roles are pinned to their own.
func (s *StatsService) scope(caller *authz.CallerContext, storeID *uint) (*uint, error) {
	if caller.IsAdmin() {
		return storeID, nil
	}
	if caller.Role.IsStoreScoped() {
		if caller.StoreID == nil {
			return nil, ErrForbidden
		}
		return caller.StoreID, nil
	}
	return nil, ErrForbidden
}

func (s *StatsService) OrdersByStatus(ctx context.Context, caller *authz.CallerContext, storeID *uint, from, to *time.Time) ([]repo.StatusCount, error) {
	scoped, err := s.scope(caller, storeID)
	if err != nil {
		return nil, err
	}
	return s.Repo.CountOrdersByStatus(ctx, scoped, from, to)
}

func (s *StatsService) Revenue(ctx context.Context, caller *authz.CallerContext, storeID *uint, from, to *time.Time) ([]repo.StoreRevenue, error) {
	scoped, err := s.scope(caller, storeID)
	if err != nil {
		return nil, err
	}
	return s.Repo.RevenueByStore(ctx, scoped, from, to)
}

func (s *StatsService) TopProducts(ctx context.Context, caller *authz.CallerContext, storeID *uint, from, to *time.Time, limit int) ([]repo.ProductSales, error) {
	scoped, err := s.scope(caller, storeID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.Repo.TopProducts(ctx, scoped, from, to, limit)
}
