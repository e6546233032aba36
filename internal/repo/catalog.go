package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/models"
)

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) ListCategories(ctx context.Context, limit, offset int) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").First(&prod, id).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

// GetProductsByIDs returns the matching products keyed by id; absent ids are
// simply missing from the map.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	var prods []models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&prods).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]models.Product, len(prods))
	for _, p := range prods {
		out[p.ID] = p
	}
	return out, nil
}

type ProductFilter struct {
	StoreID    *uint
	CategoryID *uint
	// WebVisible narrows to rows anonymous/customer callers may see
	// (is_active AND show_in_web).
	WebVisible bool
	Limit      int
	Offset     int
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.StoreID != nil {
		q = q.Where("store_id = ?", *f.StoreID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.WebVisible {
		q = q.Where("is_active = ? AND show_in_web = ?", true, true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var prods []models.Product
	if err := q.Preload("Category").Order("id ASC").Limit(f.Limit).Offset(f.Offset).Find(&prods).Error; err != nil {
		return 0, nil, err
	}
	return total, prods, nil
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// deductStock is a guarded single-statement decrement. The stock check and
// the write are one statement, so concurrent orders cannot interleave a
// read-modify-write and drive stock negative.
func deductStock(tx *gorm.DB, productID uint, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND is_active = ? AND current_stock >= ?", productID, true, qty).
		Update("current_stock", gorm.Expr("current_stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func restoreStock(tx *gorm.DB, productID uint, qty int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("current_stock", gorm.Expr("current_stock + ?", qty)).Error
}
