package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"liveshop-service/internal/catalog"
	"liveshop-service/internal/codes"
	"liveshop-service/internal/models"
	"liveshop-service/internal/variants"
)

// ProductStore is the slice of the products repository the variant service
// needs. Declared here so tests can substitute an in-memory fake.
type ProductStore interface {
	GetProductByID(tenantID string, productID uuid.UUID) (*models.Product, error)
	GetProductByCode(tenantID, code string) (*models.Product, error)
	BatchGetProductsByCodes(tenantID string, codes []string) ([]models.Product, error)
	GetVariantsByBaseCode(tenantID, baseCode string) ([]models.Product, error)
	AllProductCodes(tenantID string) ([]string, error)
	CreateProduct(tenantID string, product *models.Product) error
	UpdateProductFields(tenantID, code string, fields variants.FieldValues) error
}

// ItemCodeSource supplies purchase-order item codes so draft orders reserve
// their sequence numbers before being received.
type ItemCodeSource interface {
	AllItemCodes(tenantID string) ([]string, error)
}

// VariantProductPublisher emits product events for generated variants
type VariantProductPublisher interface {
	PublishVariantsGenerated(tenantID string, base *models.Product, variantCodes []string)
}

// VariantService expands attribute selections into variant rows, reconciles
// them against the existing catalog, and allocates sequential product codes.
type VariantService interface {
	Preview(tenantID string, productID uuid.UUID, req *models.PreviewVariantsRequest) (*models.VariantPreview, error)
	Generate(tenantID string, productID uuid.UUID, req *models.GenerateVariantsRequest) (*models.GenerateVariantsResult, error)
	ApplyConflicts(tenantID string, req *models.ApplyConflictsRequest) (*models.ApplyConflictsResult, error)
	NextCode(tenantID, category string, draftCodes []string) (*models.NextCodeData, error)
	CheckGap(tenantID string, req *models.GapCheckRequest) (*models.GapCheckData, error)
	ParseSignature(signature string) []models.AttributeLineInput
	AllocateProductCode(tenantID string, req *models.CreateProductRequest) (string, error)
}

type variantService struct {
	cat         *catalog.Catalog
	products    ProductStore
	itemCodes   ItemCodeSource
	publisher   VariantProductPublisher
	maxVariants int
	logger      *logrus.Entry
}

// NewVariantService creates a new variant service
func NewVariantService(cat *catalog.Catalog, products ProductStore, itemCodes ItemCodeSource, publisher VariantProductPublisher, maxVariants int, logger *logrus.Logger) VariantService {
	return &variantService{
		cat:         cat,
		products:    products,
		itemCodes:   itemCodes,
		publisher:   publisher,
		maxVariants: maxVariants,
		logger:      logger.WithField("component", "variant_service"),
	}
}

func toAttributeLines(inputs []models.AttributeLineInput) []variants.AttributeLine {
	lines := make([]variants.AttributeLine, len(inputs))
	for i, in := range inputs {
		lines[i] = variants.AttributeLine{
			AttributeID:    in.AttributeID,
			AttributeName:  in.AttributeName,
			SelectedValues: in.SelectedValues,
		}
	}
	return lines
}

// fieldValuesFromProduct flattens a catalog row into the tracked field map
// used by conflict reconciliation. Nil pointers become empty strings so a
// cleared barcode still diffs against an incoming one.
func fieldValuesFromProduct(p *models.Product) variants.FieldValues {
	fv := variants.FieldValues{
		variants.FieldSellingPrice:  p.SellingPrice,
		variants.FieldPurchasePrice: p.PurchasePrice,
		variants.FieldStockQuantity: p.StockQuantity,
		variants.FieldProductName:   p.Name,
		variants.FieldBarcode:       "",
	}
	if p.Barcode != nil {
		fv[variants.FieldBarcode] = *p.Barcode
	}
	fv[variants.FieldVariantSignature] = ""
	if p.VariantSignature != nil {
		fv[variants.FieldVariantSignature] = *p.VariantSignature
	}
	return fv
}

// incomingGeneratedFields is what a regeneration proposes for one variant.
// Stock and barcode are deliberately absent: expansion never computes them,
// and absent fields are skipped by the diff.
func incomingGeneratedFields(base *models.Product, g variants.GeneratedVariant, signature string) variants.FieldValues {
	return variants.FieldValues{
		variants.FieldProductName:      g.Name,
		variants.FieldSellingPrice:     base.SellingPrice,
		variants.FieldPurchasePrice:    base.PurchasePrice,
		variants.FieldVariantSignature: signature,
	}
}

func conflictToModel(c *variants.Conflict) models.VariantConflict {
	out := models.VariantConflict{
		ProductCode: c.ProductCode,
		ProductName: c.VariantName,
		Fields:      make([]models.VariantConflictField, 0, len(c.DifferingFields)),
	}
	for _, f := range c.DifferingFields {
		out.Fields = append(out.Fields, models.VariantConflictField{
			Field:    f,
			Current:  c.OldFields[f],
			Incoming: c.NewFields[f],
		})
	}
	return out
}

// expand runs the pure expansion for a base product and policies the size cap.
func (s *variantService) expand(base *models.Product, inputs []models.AttributeLineInput) ([]variants.GeneratedVariant, string, error) {
	lines := toAttributeLines(inputs)
	generated, err := variants.Expand(s.cat, variants.BaseProduct{
		Code:      base.Code,
		Name:      base.Name,
		ListPrice: base.SellingPrice,
	}, lines)
	if err != nil {
		if errors.Is(err, variants.ErrNoAttributeLines) {
			return nil, "", newValidationError(CodeValidationError, "no attribute line matched the catalog", "lines")
		}
		return nil, "", err
	}
	if s.maxVariants > 0 && len(generated) > s.maxVariants {
		return nil, "", &ValidationError{
			Code:    CodeTooManyVariants,
			Message: fmt.Sprintf("expansion yields %d variants, maximum is %d", len(generated), s.maxVariants),
			Field:   "lines",
			Details: map[string]interface{}{"count": len(generated), "max": s.maxVariants},
		}
	}
	signature := variants.FormatSignature(variants.ResolveLines(s.cat, lines))
	return generated, signature, nil
}

// existingByCode loads every catalog row whose code collides with the
// generated set, keyed by code.
func (s *variantService) existingByCode(tenantID string, generated []variants.GeneratedVariant) (map[string]models.Product, error) {
	generatedCodes := make([]string, len(generated))
	for i, g := range generated {
		generatedCodes[i] = g.Code
	}
	existing, err := s.products.BatchGetProductsByCodes(tenantID, generatedCodes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]models.Product, len(existing))
	for _, p := range existing {
		byCode[p.Code] = p
	}
	return byCode, nil
}

func (s *variantService) Preview(tenantID string, productID uuid.UUID, req *models.PreviewVariantsRequest) (*models.VariantPreview, error) {
	base, err := s.products.GetProductByID(tenantID, productID)
	if err != nil {
		return nil, err
	}
	generated, signature, err := s.expand(base, req.Lines)
	if err != nil {
		return nil, err
	}
	byCode, err := s.existingByCode(tenantID, generated)
	if err != nil {
		return nil, err
	}

	preview := &models.VariantPreview{
		BaseCode:  base.Code,
		BaseName:  base.Name,
		Signature: signature,
		Variants:  make([]models.GeneratedVariantPayload, 0, len(generated)),
	}
	for _, g := range generated {
		valuesByLine := make(map[string]string, len(g.SourceLines))
		for i, line := range g.SourceLines {
			if i < len(g.AttributeValues) {
				valuesByLine[line.AttributeName] = g.AttributeValues[i]
			}
		}
		ex, exists := byCode[g.Code]
		preview.Variants = append(preview.Variants, models.GeneratedVariantPayload{
			Code:            g.Code,
			Name:            g.Name,
			AttributeValues: g.AttributeValues,
			ValuesByLine:    valuesByLine,
			Exists:          exists,
		})
		if !exists {
			preview.NewCount++
			continue
		}
		preview.ExistingCount++
		incoming := incomingGeneratedFields(base, g, signature)
		if c := variants.Diff(g.Code, ex.Name, fieldValuesFromProduct(&ex), incoming, variants.TrackedFields()); c != nil {
			preview.Conflicts = append(preview.Conflicts, conflictToModel(c))
		}
	}
	return preview, nil
}

func (s *variantService) Generate(tenantID string, productID uuid.UUID, req *models.GenerateVariantsRequest) (*models.GenerateVariantsResult, error) {
	base, err := s.products.GetProductByID(tenantID, productID)
	if err != nil {
		return nil, err
	}
	generated, signature, err := s.expand(base, req.Lines)
	if err != nil {
		return nil, err
	}
	byCode, err := s.existingByCode(tenantID, generated)
	if err != nil {
		return nil, err
	}

	acceptedByCode := make(map[string][]string, len(req.Resolutions))
	for _, res := range req.Resolutions {
		acceptedByCode[res.ProductCode] = res.AcceptedFields
	}

	result := &models.GenerateVariantsResult{Signature: signature}
	var eventCodes []string
	for _, g := range generated {
		ex, exists := byCode[g.Code]
		if !exists {
			variant := &models.Product{
				Code:             g.Code,
				BaseCode:         &base.Code,
				Name:             g.Name,
				SellingPrice:     base.SellingPrice,
				PurchasePrice:    base.PurchasePrice,
				Supplier:         base.Supplier,
				Status:           models.ProductStatusActive,
				VariantSignature: &signature,
			}
			if err := s.products.CreateProduct(tenantID, variant); err != nil {
				return nil, fmt.Errorf("failed to create variant %s: %w", g.Code, err)
			}
			result.Created = append(result.Created, *variant)
			eventCodes = append(eventCodes, variant.Code)
			continue
		}

		incoming := incomingGeneratedFields(base, g, signature)
		conflict := variants.Diff(g.Code, ex.Name, fieldValuesFromProduct(&ex), incoming, variants.TrackedFields())
		if conflict == nil {
			result.Skipped = append(result.Skipped, g.Code)
			continue
		}
		accepted, resolved := acceptedByCode[g.Code]
		merged := variants.Apply(conflict, accepted)
		if !resolved || len(merged) == 0 {
			result.Skipped = append(result.Skipped, g.Code)
			result.Conflicts = append(result.Conflicts, conflictToModel(conflict))
			continue
		}
		if err := s.products.UpdateProductFields(tenantID, g.Code, merged); err != nil {
			return nil, fmt.Errorf("failed to update variant %s: %w", g.Code, err)
		}
		updated, err := s.products.GetProductByCode(tenantID, g.Code)
		if err != nil {
			return nil, err
		}
		result.Updated = append(result.Updated, *updated)
		eventCodes = append(eventCodes, g.Code)
	}

	if len(eventCodes) > 0 && s.publisher != nil {
		s.publisher.PublishVariantsGenerated(tenantID, base, eventCodes)
	}
	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"base_code": base.Code,
		"created":   len(result.Created),
		"updated":   len(result.Updated),
		"skipped":   len(result.Skipped),
	}).Info("Variant generation completed")
	return result, nil
}

// normalizeIncoming coerces JSON-decoded conflict values back into the types
// the diff compares with: prices to decimals, stock to int.
func normalizeIncoming(raw models.JSON) variants.FieldValues {
	fv := variants.FieldValues{}
	for field, v := range raw {
		switch field {
		case variants.FieldSellingPrice, variants.FieldPurchasePrice:
			switch n := v.(type) {
			case float64:
				fv[field] = decimal.NewFromFloat(n)
			case string:
				if d, err := decimal.NewFromString(n); err == nil {
					fv[field] = d
				}
			case decimal.Decimal:
				fv[field] = n
			}
		case variants.FieldStockQuantity:
			switch n := v.(type) {
			case float64:
				fv[field] = int(n)
			case int:
				fv[field] = n
			}
		default:
			fv[field] = v
		}
	}
	return fv
}

// ApplyConflicts replays previously reported conflicts against the current
// catalog rows and writes only the fields the operator accepted. The diff is
// recomputed so a field that no longer differs is not rewritten.
func (s *variantService) ApplyConflicts(tenantID string, req *models.ApplyConflictsRequest) (*models.ApplyConflictsResult, error) {
	result := &models.ApplyConflictsResult{Updated: []string{}}
	for _, item := range req.Items {
		existing, err := s.products.GetProductByCode(tenantID, item.ProductCode)
		if err != nil {
			return nil, err
		}
		incoming := normalizeIncoming(item.Incoming)
		conflict := variants.Diff(existing.Code, existing.Name, fieldValuesFromProduct(existing), incoming, variants.TrackedFields())
		merged := variants.Apply(conflict, item.AcceptedFields)
		if len(merged) == 0 {
			result.Skipped = append(result.Skipped, item.ProductCode)
			continue
		}
		if err := s.products.UpdateProductFields(tenantID, item.ProductCode, merged); err != nil {
			return nil, fmt.Errorf("failed to apply conflict resolution for %s: %w", item.ProductCode, err)
		}
		result.Updated = append(result.Updated, item.ProductCode)
	}
	return result, nil
}

// codeSources loads every persisted code list that takes part in sequence
// allocation.
func (s *variantService) codeSources(tenantID string) ([]string, []string, error) {
	productCodes, err := s.products.AllProductCodes(tenantID)
	if err != nil {
		return nil, nil, err
	}
	itemCodes, err := s.itemCodes.AllItemCodes(tenantID)
	if err != nil {
		return nil, nil, err
	}
	return productCodes, itemCodes, nil
}

func (s *variantService) NextCode(tenantID, category string, draftCodes []string) (*models.NextCodeData, error) {
	if category == "" {
		category = "N"
	}
	if len(category) != 1 || !isCategoryLetter(category[0]) {
		return nil, newValidationError(CodeValidationError, "category must be a single letter", "category")
	}
	productCodes, itemCodes, err := s.codeSources(tenantID)
	if err != nil {
		return nil, err
	}
	cat := category[0]
	max, _ := codes.MaxSequence(cat, draftCodes, productCodes, itemCodes)
	return &models.NextCodeData{
		Category:    string(cat),
		NextCode:    codes.NextCode(cat, draftCodes, productCodes, itemCodes),
		MaxSequence: max,
	}, nil
}

func (s *variantService) CheckGap(tenantID string, req *models.GapCheckRequest) (*models.GapCheckData, error) {
	data := &models.GapCheckData{Code: req.Code, Threshold: codes.GapThreshold}
	parsed, ok := codes.Parse(req.Code)
	if !ok {
		// not a <letter><digits> code: variant codes and free-form codes opt out
		return data, nil
	}
	productCodes, itemCodes, err := s.codeSources(tenantID)
	if err != nil {
		return nil, err
	}
	max, _ := codes.MaxSequence(parsed.Category, req.DraftCodes, productCodes, itemCodes)
	check := codes.CheckGap(req.Code, max)
	data.Checked = true
	data.Gap = check.Gap
	data.Large = check.Large
	data.MaxSequence = max
	return data, nil
}

// ParseSignature decodes a stored signature string back into attribute lines
// using the catalog's priority order.
func (s *variantService) ParseSignature(signature string) []models.AttributeLineInput {
	lines := variants.ParseSignature(s.cat, signature)
	out := make([]models.AttributeLineInput, len(lines))
	for i, line := range lines {
		out[i] = models.AttributeLineInput{
			AttributeID:    line.AttributeID,
			AttributeName:  line.AttributeName,
			SelectedValues: line.SelectedValues,
		}
	}
	return out
}

// AllocateProductCode resolves the code for a create request: a manually
// typed code is gap-checked unless the caller confirmed it, an omitted code
// gets the next sequential one for the requested category.
func (s *variantService) AllocateProductCode(tenantID string, req *models.CreateProductRequest) (string, error) {
	if req.Code != nil && *req.Code != "" {
		code := *req.Code
		if req.SkipGapCheck {
			return code, nil
		}
		parsed, ok := codes.Parse(code)
		if !ok {
			return code, nil
		}
		productCodes, itemCodes, err := s.codeSources(tenantID)
		if err != nil {
			return "", err
		}
		max, _ := codes.MaxSequence(parsed.Category, productCodes, itemCodes)
		if check := codes.CheckGap(code, max); check.Large {
			return "", &ValidationError{
				Code:    CodeGapTooLarge,
				Message: fmt.Sprintf("code %s jumps %d past the current maximum %d", code, check.Gap, max),
				Field:   "code",
				Details: map[string]interface{}{
					"code":        code,
					"gap":         check.Gap,
					"maxSequence": max,
					"threshold":   codes.GapThreshold,
				},
			}
		}
		return code, nil
	}

	category := "N"
	if req.CodeCategory != nil && *req.CodeCategory != "" {
		category = *req.CodeCategory
	}
	if len(category) != 1 || !isCategoryLetter(category[0]) {
		return "", newValidationError(CodeValidationError, "codeCategory must be a single letter", "codeCategory")
	}
	productCodes, itemCodes, err := s.codeSources(tenantID)
	if err != nil {
		return "", err
	}
	return codes.NextCode(category[0], productCodes, itemCodes), nil
}

func isCategoryLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
