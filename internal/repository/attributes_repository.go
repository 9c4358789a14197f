package repository

import (
	"fmt"

	"gorm.io/gorm"

	"liveshop-service/internal/catalog"
	"liveshop-service/internal/models"
)

// AttributesRepository loads the attribute catalog from the database.
// Attributes are reference data shared across tenants: read once at startup,
// never mutated at runtime.
type AttributesRepository struct {
	db *gorm.DB
}

func NewAttributesRepository(db *gorm.DB) *AttributesRepository {
	return &AttributesRepository{db: db}
}

// LoadCatalog reads all attributes with their values in position order and
// builds the in-process catalog. An empty table is seeded from the built-in
// defaults first, so a fresh deployment starts with a working catalog.
func (r *AttributesRepository) LoadCatalog() (*catalog.Catalog, error) {
	var count int64
	if err := r.db.Model(&models.ProductAttribute{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count attributes: %w", err)
	}
	if count == 0 {
		if err := r.seedDefaults(); err != nil {
			return nil, fmt.Errorf("failed to seed default attributes: %w", err)
		}
	}

	var rows []models.ProductAttribute
	if err := r.db.Preload("Values", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_attribute_values.position ASC")
	}).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load attributes: %w", err)
	}

	attrs := make([]catalog.Attribute, len(rows))
	for i, row := range rows {
		values := make([]catalog.Value, len(row.Values))
		for j, v := range row.Values {
			values[j] = catalog.Value{Name: v.Name, ShortCode: v.ShortCode}
		}
		attrs[i] = catalog.Attribute{
			ID:     row.ID.String(),
			Name:   row.Name,
			Values: values,
		}
	}
	return catalog.New(attrs), nil
}

// GetAttributes returns the persisted attribute rows in priority order
func (r *AttributesRepository) GetAttributes() ([]models.ProductAttribute, error) {
	var rows []models.ProductAttribute
	err := r.db.Preload("Values", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_attribute_values.position ASC")
	}).Order("position ASC").Find(&rows).Error
	return rows, err
}

func (r *AttributesRepository) seedDefaults() error {
	defaults := catalog.Default()
	return r.db.Transaction(func(tx *gorm.DB) error {
		for pos, attr := range defaults.Attributes() {
			row := models.ProductAttribute{
				Name:     attr.Name,
				Position: pos,
			}
			for vpos, v := range attr.Values {
				row.Values = append(row.Values, models.ProductAttributeValue{
					Name:      v.Name,
					ShortCode: v.ShortCode,
					Position:  vpos,
				})
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
