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
	"github.com/retailpos/backoffice/internal/search"
)

type CatalogService struct {
	Repo  *repo.GormRepo
	Audit audit.Sink
	// Search is optional; when nil, products are simply not indexed.
	Search *search.Products
}

type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type ProductRequest struct {
	StoreID      *uint    `json:"store_id"`
	CategoryID   *uint    `json:"category_id"`
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	ImageURL     *string  `json:"image_url"`
	Price        *float64 `json:"price"`
	CurrentStock *int     `json:"current_stock"`
	ShowInWeb    *bool    `json:"show_in_web"`
	ShowInPOS    *bool    `json:"show_in_pos"`
	IsActive     *bool    `json:"is_active"`
}

func (s *CatalogService) CreateCategory(ctx context.Context, caller *authz.CallerContext, req CategoryRequest) (*models.Category, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.Name == nil || *req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	cat := models.Category{Name: *req.Name}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	if err := s.Repo.CreateCategory(ctx, &cat); err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "category.create",
		Details: map[string]any{"category_id": cat.ID},
	})
	return &cat, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, limit, offset int) ([]models.Category, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Repo.ListCategories(ctx, limit, offset)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, caller *authz.CallerContext, id uint, req CategoryRequest) (*models.Category, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Name != nil {
		cat.Name = *req.Name
	}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	if err := s.Repo.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, caller *authz.CallerContext, id uint) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, caller *authz.CallerContext, req ProductRequest) (*models.Product, error) {
	if req.StoreID == nil {
		return nil, fmt.Errorf("%w: store_id required", ErrValidation)
	}
	if !caller.CanManageCatalog(*req.StoreID) {
		return nil, ErrForbidden
	}
	if req.Name == nil || *req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.CategoryID == nil {
		return nil, fmt.Errorf("%w: category_id required", ErrValidation)
	}
	if req.Price == nil || *req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.CurrentStock != nil && *req.CurrentStock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	if _, err := s.Repo.GetCategory(ctx, *req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %d does not exist", ErrValidation, *req.CategoryID)
		}
		return nil, err
	}
	if _, err := s.Repo.GetStore(ctx, *req.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: store %d does not exist", ErrValidation, *req.StoreID)
		}
		return nil, err
	}

	prod := models.Product{
		StoreID:    *req.StoreID,
		CategoryID: *req.CategoryID,
		Name:       *req.Name,
		Price:      *req.Price,
		ShowInWeb:  true,
		ShowInPOS:  true,
		IsActive:   true,
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.ImageURL != nil {
		prod.ImageURL = *req.ImageURL
	}
	if req.CurrentStock != nil {
		prod.CurrentStock = *req.CurrentStock
	}
	if req.ShowInWeb != nil {
		prod.ShowInWeb = *req.ShowInWeb
	}
	if req.ShowInPOS != nil {
		prod.ShowInPOS = *req.ShowInPOS
	}
	if req.IsActive != nil {
		prod.IsActive = *req.IsActive
	}

	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		return nil, err
	}
	if s.Search != nil {
		s.Search.IndexProduct(ctx, &prod)
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "product.create",
		Details: map[string]any{"product_id": prod.ID, "store_id": prod.StoreID},
	})
	return &prod, nil
}

// GetProduct hides products that are inactive or web-hidden from customer
// callers; staff see everything in their scope.
func (s *CatalogService) GetProduct(ctx context.Context, caller *authz.CallerContext, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if caller == nil || caller.Role == models.RoleCustomer {
		if !prod.IsActive || !prod.ShowInWeb {
			return nil, ErrNotFound
		}
	}
	return prod, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, caller *authz.CallerContext, f repo.ProductFilter) (int64, []models.Product, error) {
	if caller == nil || caller.Role == models.RoleCustomer {
		f.WebVisible = true
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.Repo.ListProducts(ctx, f)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, caller *authz.CallerContext, id uint, req ProductRequest) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.CanManageCatalog(prod.StoreID) {
		return nil, ErrForbidden
	}

	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		prod.Price = *req.Price
	}
	if req.CurrentStock != nil {
		if *req.CurrentStock < 0 {
			return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
		}
		prod.CurrentStock = *req.CurrentStock
	}
	if req.CategoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: category %d does not exist", ErrValidation, *req.CategoryID)
			}
			return nil, err
		}
		prod.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.ImageURL != nil {
		prod.ImageURL = *req.ImageURL
	}
	if req.ShowInWeb != nil {
		prod.ShowInWeb = *req.ShowInWeb
	}
	if req.ShowInPOS != nil {
		prod.ShowInPOS = *req.ShowInPOS
	}
	if req.IsActive != nil {
		prod.IsActive = *req.IsActive
	}

	if err := s.Repo.SaveProduct(ctx, prod); err != nil {
		return nil, err
	}
	if s.Search != nil {
		s.Search.IndexProduct(ctx, prod)
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "product.update",
		Details: map[string]any{"product_id": id},
	})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, caller *authz.CallerContext, id uint) error {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !caller.CanManageCatalog(prod.StoreID) {
		return ErrForbidden
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if s.Search != nil {
		s.Search.DeleteProduct(ctx, id)
	}

	s.Audit.Record(ctx, audit.Entry{
		ActorID: caller.UserID,
		Action:  "product.delete",
		Details: map[string]any{"product_id": id},
	})
	return nil
}

// SearchProducts proxies to the ES index; customer callers only hit
// web-visible documents.
func (s *CatalogService) SearchProducts(ctx context.Context, caller *authz.CallerContext, query string, from, size int) (*search.Result, error) {
	if s.Search == nil {
		return nil, fmt.Errorf("%w: search is not configured", ErrValidation)
	}
	if query == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	webOnly := caller == nil || caller.Role == models.RoleCustomer
	return s.Search.Search(ctx, query, webOnly, from, size)
}
