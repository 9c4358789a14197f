package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"liveshop-service/internal/catalog"
	"liveshop-service/internal/models"
	"liveshop-service/internal/variants"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute  // Single product cache
	ProductListCacheTTL = 2 * time.Minute  // Product list cache (shorter due to frequent changes)
	AttributeCacheTTL   = 30 * time.Minute // Attribute catalog rarely changes

	// L1 memory cache for the hot code->product path during live sessions
	codeCacheTTL     = 30 * time.Second
	codeCacheCleanup = time.Minute
)

type ProductsRepository struct {
	db     *gorm.DB
	redis  *redis.Client
	memory *gocache.Cache
}

func NewProductsRepository(db *gorm.DB, redisClient *redis.Client) *ProductsRepository {
	return &ProductsRepository{
		db:     db,
		redis:  redisClient,
		memory: gocache.New(codeCacheTTL, codeCacheCleanup),
	}
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(tenantID string, prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("liveshop:%s:%s:%s", prefix, tenantID, hex.EncodeToString(hash[:]))
}

// invalidateProductCaches invalidates all caches related to a product
func (r *ProductsRepository) invalidateProductCaches(ctx context.Context, tenantID string, productID uuid.UUID, code string) {
	r.memory.Delete(codeCacheKey(tenantID, code))
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx,
		fmt.Sprintf("liveshop:product:%s:%s", tenantID, productID.String()),
		fmt.Sprintf("liveshop:product:code:%s:%s", tenantID, strings.ToUpper(code)),
	).Err()
	r.deletePattern(ctx, fmt.Sprintf("liveshop:products:list:%s:*", tenantID))
}

// invalidateTenantProductListCaches invalidates all product list caches for a tenant
func (r *ProductsRepository) invalidateTenantProductListCaches(ctx context.Context, tenantID string) {
	if r.redis == nil {
		return
	}
	r.deletePattern(ctx, fmt.Sprintf("liveshop:products:list:%s:*", tenantID))
}

// deletePattern removes all redis keys matching a pattern via SCAN
func (r *ProductsRepository) deletePattern(ctx context.Context, pattern string) {
	iter := r.redis.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		_ = r.redis.Del(ctx, iter.Val()).Err()
	}
}

func codeCacheKey(tenantID, code string) string {
	return tenantID + ":" + strings.ToUpper(code)
}

// Product CRUD Operations

// CreateProduct creates a new product
func (r *ProductsRepository) CreateProduct(tenantID string, product *models.Product) error {
	product.TenantID = tenantID
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	// Ensure product has an ID before generating slug (for uniqueness)
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}

	// Generate slug from name if not provided or empty
	if product.Slug == nil || *product.Slug == "" {
		baseSlug := catalog.Slugify(product.Name)
		// Ensure slug uniqueness by appending first 8 chars of product ID
		uniqueSlug := fmt.Sprintf("%s-%s", baseSlug, product.ID.String()[:8])
		product.Slug = &uniqueSlug
	}

	err := r.db.Create(product).Error
	if err == nil {
		r.invalidateTenantProductListCaches(context.Background(), tenantID)
	}
	return err
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(tenantID string, productID uuid.UUID) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("liveshop:product:%s:%s", tenantID, productID.String())

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.Where("tenant_id = ? AND id = ?", tenantID, productID).First(&product).Error; err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProductByCode retrieves a product by its code. This is the hot path of
// live comment ingestion, so lookups go through the in-process cache first,
// then redis, then the database.
func (r *ProductsRepository) GetProductByCode(tenantID, code string) (*models.Product, error) {
	memKey := codeCacheKey(tenantID, code)
	if cached, ok := r.memory.Get(memKey); ok {
		product := cached.(models.Product)
		return &product, nil
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("liveshop:product:code:%s:%s", tenantID, strings.ToUpper(code))

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				r.memory.Set(memKey, product, gocache.DefaultExpiration)
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.Where("tenant_id = ? AND UPPER(code) = ?", tenantID, strings.ToUpper(code)).First(&product).Error; err != nil {
		return nil, err
	}

	r.memory.Set(memKey, product, gocache.DefaultExpiration)
	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// BatchGetProductsByCodes retrieves multiple products by code in one query
func (r *ProductsRepository) BatchGetProductsByCodes(tenantID string, codes []string) ([]models.Product, error) {
	if len(codes) == 0 {
		return []models.Product{}, nil
	}
	upper := make([]string, len(codes))
	for i, c := range codes {
		upper[i] = strings.ToUpper(c)
	}
	var products []models.Product
	err := r.db.Where("tenant_id = ? AND UPPER(code) IN ?", tenantID, upper).Find(&products).Error
	return products, err
}

// UpdateProduct updates a product and invalidates caches
func (r *ProductsRepository) UpdateProduct(tenantID string, productID uuid.UUID, updates *models.Product) error {
	updates.UpdatedAt = time.Now()
	var existing models.Product
	if err := r.db.Select("code").Where("tenant_id = ? AND id = ?", tenantID, productID).First(&existing).Error; err != nil {
		return err
	}
	err := r.db.Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		Updates(updates).Error

	if err == nil {
		r.invalidateProductCaches(context.Background(), tenantID, productID, existing.Code)
	}
	return err
}

// UpdateProductFields applies a field map to a product row by code. The map
// keys are the reconciler's tracked field names; they double as column names.
func (r *ProductsRepository) UpdateProductFields(tenantID, code string, fields variants.FieldValues) error {
	if len(fields) == 0 {
		return nil
	}
	updates := make(map[string]interface{}, len(fields)+1)
	for field, value := range fields {
		updates[columnForField(field)] = value
	}
	updates["updated_at"] = time.Now()

	var existing models.Product
	if err := r.db.Select("id, code").Where("tenant_id = ? AND UPPER(code) = ?", tenantID, strings.ToUpper(code)).First(&existing).Error; err != nil {
		return err
	}
	err := r.db.Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, existing.ID).
		Updates(updates).Error
	if err == nil {
		r.invalidateProductCaches(context.Background(), tenantID, existing.ID, existing.Code)
	}
	return err
}

// columnForField maps reconciler field names onto products table columns.
// Most names match already; product_name is the one rename.
func columnForField(field string) string {
	if field == variants.FieldProductName {
		return "name"
	}
	return field
}

// UpdateStock sets the absolute stock quantity for a product
func (r *ProductsRepository) UpdateStock(tenantID string, productID uuid.UUID, quantity int) error {
	var existing models.Product
	if err := r.db.Select("code").Where("tenant_id = ? AND id = ?", tenantID, productID).First(&existing).Error; err != nil {
		return err
	}
	err := r.db.Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		Updates(map[string]interface{}{"stock_quantity": quantity, "updated_at": time.Now()}).Error
	if err == nil {
		r.invalidateProductCaches(context.Background(), tenantID, productID, existing.Code)
	}
	return err
}

// AddStockByCode increments stock for a product row identified by code
func (r *ProductsRepository) AddStockByCode(tenantID, code string, delta int) error {
	var existing models.Product
	if err := r.db.Select("id, code").Where("tenant_id = ? AND UPPER(code) = ?", tenantID, strings.ToUpper(code)).First(&existing).Error; err != nil {
		return err
	}
	err := r.db.Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, existing.ID).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_at":     time.Now(),
		}).Error
	if err == nil {
		r.invalidateProductCaches(context.Background(), tenantID, existing.ID, existing.Code)
	}
	return err
}

// DeleteProduct soft deletes a product
func (r *ProductsRepository) DeleteProduct(tenantID string, productID uuid.UUID) error {
	var existing models.Product
	if err := r.db.Select("code").Where("tenant_id = ? AND id = ?", tenantID, productID).First(&existing).Error; err != nil {
		return err
	}
	err := r.db.Where("tenant_id = ? AND id = ?", tenantID, productID).
		Delete(&models.Product{}).Error

	if err == nil {
		r.invalidateProductCaches(context.Background(), tenantID, productID, existing.Code)
	}
	return err
}

// ProductListQuery captures list filters and pagination
type ProductListQuery struct {
	Search   string                `json:"search,omitempty"`
	Status   models.ProductStatus  `json:"status,omitempty"`
	BaseCode string                `json:"baseCode,omitempty"`
	Supplier string                `json:"supplier,omitempty"`
	BaseOnly bool                  `json:"baseOnly,omitempty"`
	Page     int                   `json:"page"`
	Limit    int                   `json:"limit"`
	SortBy   string                `json:"sortBy,omitempty"`
	SortDesc bool                  `json:"sortDesc,omitempty"`
}

// allowedSortColumns guards the ORDER BY clause against injection
var allowedSortColumns = map[string]bool{
	"code":           true,
	"name":           true,
	"selling_price":  true,
	"stock_quantity": true,
	"created_at":     true,
	"updated_at":     true,
}

// GetProducts retrieves products with filters and pagination, with a short
// redis list cache keyed on the query shape.
func (r *ProductsRepository) GetProducts(tenantID string, q *ProductListQuery) ([]models.Product, int64, error) {
	ctx := context.Background()
	cacheKey := generateListCacheKey(tenantID, "products:list", q)

	type cachedList struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached cachedList
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Products, cached.Total, nil
			}
		}
	}

	var products []models.Product
	var total int64

	query := r.db.Model(&models.Product{}).Where("tenant_id = ?", tenantID)

	if q.Search != "" {
		pattern := "%" + strings.TrimSpace(q.Search) + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ? OR barcode ILIKE ?", pattern, pattern, pattern)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.BaseCode != "" {
		query = query.Where("base_code = ?", q.BaseCode)
	}
	if q.Supplier != "" {
		query = query.Where("supplier = ?", q.Supplier)
	}
	if q.BaseOnly {
		query = query.Where("base_code IS NULL OR base_code = ''")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := q.SortBy
	if !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	direction := "ASC"
	if q.SortDesc || q.SortBy == "" {
		direction = "DESC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, direction))

	offset := (q.Page - 1) * q.Limit
	if err := query.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(cachedList{Products: products, Total: total}); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductListCacheTTL)
		}
	}

	return products, total, nil
}

// GetVariantsByBaseCode returns all variant rows generated from the base code
func (r *ProductsRepository) GetVariantsByBaseCode(tenantID, baseCode string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("tenant_id = ? AND base_code = ?", tenantID, baseCode).
		Order("code ASC").
		Find(&products).Error
	return products, err
}

// AllProductCodes returns every product code for the tenant. Code allocation
// scans these together with purchase order item codes and the caller's draft.
func (r *ProductsRepository) AllProductCodes(tenantID string) ([]string, error) {
	var codes []string
	err := r.db.Model(&models.Product{}).
		Where("tenant_id = ?", tenantID).
		Pluck("code", &codes).Error
	return codes, err
}

// BulkResult captures per-row outcomes of a bulk write
type BulkResult struct {
	Created []models.Product
	Updated []models.Product
	Success int
	Failed  int
	Skipped int
	Errors  []BulkError
}

// BulkError is a row-level bulk failure
type BulkError struct {
	Index   int
	Code    string
	Message string
}

// BulkCreate inserts products one by one inside a transaction so a duplicate
// code fails (or is skipped) without aborting the whole batch.
func (r *ProductsRepository) BulkCreate(tenantID string, products []*models.Product, skipDuplicates bool) (*BulkResult, error) {
	result := &BulkResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i, product := range products {
			var count int64
			tx.Model(&models.Product{}).
				Where("tenant_id = ? AND UPPER(code) = ?", tenantID, strings.ToUpper(product.Code)).
				Count(&count)
			if count > 0 {
				if skipDuplicates {
					result.Skipped++
					continue
				}
				result.Failed++
				result.Errors = append(result.Errors, BulkError{
					Index:   i,
					Code:    "DUPLICATE_CODE",
					Message: fmt.Sprintf("Product code '%s' already exists", product.Code),
				})
				continue
			}

			product.TenantID = tenantID
			if product.ID == uuid.Nil {
				product.ID = uuid.New()
			}
			if product.Slug == nil || *product.Slug == "" {
				slug := fmt.Sprintf("%s-%s", catalog.Slugify(product.Name), product.ID.String()[:8])
				product.Slug = &slug
			}
			if err := tx.Create(product).Error; err != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkError{
					Index:   i,
					Code:    "DB_ERROR",
					Message: err.Error(),
				})
				continue
			}
			result.Created = append(result.Created, *product)
			result.Success++
		}
		return nil
	})

	if err == nil {
		r.invalidateTenantProductListCaches(context.Background(), tenantID)
	}
	return result, err
}

// BulkUpsert inserts new products and updates rows whose code already exists
func (r *ProductsRepository) BulkUpsert(tenantID string, products []*models.Product) (*BulkResult, error) {
	result := &BulkResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i, product := range products {
			var existing models.Product
			lookupErr := tx.Where("tenant_id = ? AND UPPER(code) = ?", tenantID, strings.ToUpper(product.Code)).
				First(&existing).Error

			if lookupErr == gorm.ErrRecordNotFound {
				product.TenantID = tenantID
				if product.ID == uuid.Nil {
					product.ID = uuid.New()
				}
				if product.Slug == nil || *product.Slug == "" {
					slug := fmt.Sprintf("%s-%s", catalog.Slugify(product.Name), product.ID.String()[:8])
					product.Slug = &slug
				}
				if err := tx.Create(product).Error; err != nil {
					result.Failed++
					result.Errors = append(result.Errors, BulkError{Index: i, Code: "DB_ERROR", Message: err.Error()})
					continue
				}
				result.Created = append(result.Created, *product)
				result.Success++
				continue
			}
			if lookupErr != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkError{Index: i, Code: "DB_ERROR", Message: lookupErr.Error()})
				continue
			}

			updates := map[string]interface{}{
				"name":           product.Name,
				"selling_price":  product.SellingPrice,
				"purchase_price": product.PurchasePrice,
				"stock_quantity": product.StockQuantity,
				"updated_at":     time.Now(),
			}
			if product.Barcode != nil {
				updates["barcode"] = *product.Barcode
			}
			if product.VariantSignature != nil {
				updates["variant_signature"] = *product.VariantSignature
			}
			if product.Supplier != nil {
				updates["supplier"] = *product.Supplier
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkError{Index: i, Code: "DB_ERROR", Message: err.Error()})
				continue
			}
			existing.Name = product.Name
			result.Updated = append(result.Updated, existing)
			result.Success++
		}
		return nil
	})

	if err == nil {
		r.invalidateTenantProductListCaches(context.Background(), tenantID)
	}
	return result, err
}

// Cascade delete

// ValidateCascadeDelete checks whether products can be deleted given their
// variant rows and references from purchase order items and live orders.
func (r *ProductsRepository) ValidateCascadeDelete(tenantID string, productIDs []uuid.UUID, options models.CascadeDeleteOptions) (*models.CascadeValidationResult, error) {
	result := &models.CascadeValidationResult{
		CanDelete:       true,
		BlockedEntities: make([]models.BlockedEntity, 0),
		AffectedSummary: models.AffectedSummary{
			ProductCount: len(productIDs),
		},
	}

	var targets []models.Product
	if err := r.db.Select("id, code, name").
		Where("tenant_id = ? AND id IN ?", tenantID, productIDs).
		Find(&targets).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	for _, product := range targets {
		// Variant rows pointing at this base code
		var variantCodes []string
		if err := r.db.Model(&models.Product{}).
			Where("tenant_id = ? AND base_code = ?", tenantID, product.Code).
			Pluck("code", &variantCodes).Error; err != nil {
			return nil, fmt.Errorf("failed to count variants: %w", err)
		}
		if len(variantCodes) > 0 {
			if options.DeleteVariants {
				result.AffectedSummary.VariantCount += len(variantCodes)
				result.AffectedSummary.VariantCodes = append(result.AffectedSummary.VariantCodes, variantCodes...)
			} else {
				result.CanDelete = false
				result.BlockedEntities = append(result.BlockedEntities, models.BlockedEntity{
					Type:       "variant",
					Code:       product.Code,
					Name:       product.Name,
					Reason:     fmt.Sprintf("%d variant(s) generated from this product", len(variantCodes)),
					OtherCount: len(variantCodes),
				})
			}
		}

		// Purchase order item references
		var poRefs int64
		if err := r.db.Model(&models.PurchaseOrderItem{}).
			Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_items.purchase_order_id").
			Where("purchase_orders.tenant_id = ? AND purchase_order_items.product_code = ?", tenantID, product.Code).
			Count(&poRefs).Error; err != nil {
			return nil, fmt.Errorf("failed to count purchase order references: %w", err)
		}
		result.AffectedSummary.OrderItemRefCount += int(poRefs)

		// Live order references
		var liveRefs int64
		if err := r.db.Model(&models.LiveOrder{}).
			Where("tenant_id = ? AND product_code = ?", tenantID, product.Code).
			Count(&liveRefs).Error; err != nil {
			return nil, fmt.Errorf("failed to count live order references: %w", err)
		}
		result.AffectedSummary.LiveOrderRefCount += int(liveRefs)

		if (poRefs > 0 || liveRefs > 0) && !options.ForceReferenced {
			result.CanDelete = false
			result.BlockedEntities = append(result.BlockedEntities, models.BlockedEntity{
				Type:       "reference",
				Code:       product.Code,
				Name:       product.Name,
				Reason:     fmt.Sprintf("Referenced by %d purchase order item(s) and %d live order(s)", poRefs, liveRefs),
				OtherCount: int(poRefs + liveRefs),
			})
		}
	}

	return result, nil
}

// DeleteProductsCascade soft deletes products and, when requested, the
// variant rows generated from them.
func (r *ProductsRepository) DeleteProductsCascade(tenantID string, productIDs []uuid.UUID, options models.CascadeDeleteOptions) (*models.CascadeDeleteResult, error) {
	result := &models.CascadeDeleteResult{
		Success: true,
		Errors:  make([]models.CascadeError, 0),
	}

	var targets []models.Product
	if err := r.db.Select("id, code").
		Where("tenant_id = ? AND id IN ?", tenantID, productIDs).
		Find(&targets).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if options.DeleteVariants {
			codes := make([]string, len(targets))
			for i, p := range targets {
				codes[i] = p.Code
			}
			variantResult := tx.Where("tenant_id = ? AND base_code IN ?", tenantID, codes).
				Delete(&models.Product{})
			if variantResult.Error != nil {
				result.Errors = append(result.Errors, models.CascadeError{
					EntityType: "variant",
					Code:       "DELETE_FAILED",
					Message:    variantResult.Error.Error(),
				})
			} else {
				result.VariantsDeleted = int(variantResult.RowsAffected)
			}
		}

		productResult := tx.Where("tenant_id = ? AND id IN ?", tenantID, productIDs).Delete(&models.Product{})
		if productResult.Error != nil {
			return fmt.Errorf("failed to delete products: %w", productResult.Error)
		}
		result.ProductsDeleted = int(productResult.RowsAffected)
		return nil
	})

	if err != nil {
		result.Success = false
		return result, err
	}

	r.invalidateTenantProductListCaches(context.Background(), tenantID)
	r.memory.Flush()

	result.PartialSuccess = len(result.Errors) > 0
	return result, nil
}
