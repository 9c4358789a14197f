package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductAttribute is one named axis of variation (e.g. "Màu sắc").
// Attributes and their values are reference data: seeded once, loaded at
// startup, and treated as immutable at runtime. Position fixes both the
// display order and the priority used when parsing stored signatures.
type ProductAttribute struct {
	ID        uuid.UUID               `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string                  `json:"name" gorm:"not null;uniqueIndex:idx_product_attributes_name"`
	Position  int                     `json:"position" gorm:"not null;default:0;index"`
	Values    []ProductAttributeValue `json:"values,omitempty" gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

// ProductAttributeValue is one permissible value of an attribute together
// with the short code embedded into generated variant codes.
type ProductAttributeValue struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AttributeID uuid.UUID `json:"attributeId" gorm:"type:uuid;not null;index;uniqueIndex:idx_product_attribute_values_name"`
	Name        string    `json:"name" gorm:"not null;uniqueIndex:idx_product_attribute_values_name"`
	ShortCode   string    `json:"shortCode" gorm:"not null"`
	Position    int       `json:"position" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AttributeListResponse lists the catalog in priority order
type AttributeListResponse struct {
	Success bool               `json:"success"`
	Data    []ProductAttribute `json:"data"`
}

// TableName returns the table name for the ProductAttribute model
func (ProductAttribute) TableName() string {
	return "product_attributes"
}

// TableName returns the table name for the ProductAttributeValue model
func (ProductAttributeValue) TableName() string {
	return "product_attribute_values"
}
