package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"liveshop-service/internal/models"
	"liveshop-service/internal/repository"
	"liveshop-service/internal/services"
)

const (
	DefaultBatchSize = 100 // Default rows per batch
	MaxBatchSize     = 500 // Maximum rows per batch
	DefaultRetries   = 2   // Default retry attempts for failed batches
	MaxRetries       = 5   // Maximum retry attempts

	exportPageSize = 500
)

type ImportHandler struct {
	repo           *repository.ProductsRepository
	variantService services.VariantService
	logger         *logrus.Entry
}

func NewImportHandler(repo *repository.ProductsRepository, variantService services.VariantService, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		repo:           repo,
		variantService: variantService,
		logger:         logger.WithField("component", "import_handler"),
	}
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/products/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		// Return JSON template definition
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Write header row only
	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	// Style for header row
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Style for required columns
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Write header row only (no sample data)
	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		// Set column width
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Add Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")

	f.SetCellValue("Instructions", "A3", "PRODUCT CODES:")
	f.SetCellValue("Instructions", "A4", "Codes are a category letter followed by a sequence number, e.g. A0042.")
	f.SetCellValue("Instructions", "A5", "Use the next free number per category so live-session comments can reference the code.")
	f.SetCellValue("Instructions", "A6", "Free-form codes are also accepted but are excluded from sequence tracking.")

	f.SetCellValue("Instructions", "A8", "VARIANT ROWS:")
	f.SetCellValue("Instructions", "A9", "A row with baseCode is treated as a generated variant of that base product.")
	f.SetCellValue("Instructions", "A10", "variantSignature records the attribute selections, e.g. (Đen | Trắng) (S | M | L).")
	f.SetCellValue("Instructions", "A11", "Import base products before their variant rows so baseCode resolves.")

	f.SetCellValue("Instructions", "A13", "Column Definitions:")
	f.SetCellValue("Instructions", "A14", "Column")
	f.SetCellValue("Instructions", "B14", "Description")
	f.SetCellValue("Instructions", "C14", "Required")
	f.SetCellValue("Instructions", "D14", "Type")
	f.SetCellValue("Instructions", "E14", "Example")

	for i, col := range template.Columns {
		row := i + 15
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	// Set active sheet to Products
	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}

// ImportProducts imports products from a CSV or Excel file with batch
// processing, retry logic, and partial commits.
// POST /api/v1/products/import
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")
	startTime := time.Now()

	// Get file from form
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return
	}
	defer file.Close()

	// Get import options
	skipDuplicates := c.DefaultPostForm("skipDuplicates", "false") == "true"
	updateExisting := c.DefaultPostForm("updateExisting", "false") == "true"
	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	// Get batch processing options
	batchSize := DefaultBatchSize
	if bs := c.DefaultPostForm("batchSize", ""); bs != "" {
		if parsed, err := strconv.Atoi(bs); err == nil && parsed > 0 {
			batchSize = parsed
			if batchSize > MaxBatchSize {
				batchSize = MaxBatchSize
			}
		}
	}

	maxRetries := DefaultRetries
	if mr := c.DefaultPostForm("maxRetries", ""); mr != "" {
		if parsed, err := strconv.Atoi(mr); err == nil && parsed >= 0 {
			maxRetries = parsed
			if maxRetries > MaxRetries {
				maxRetries = MaxRetries
			}
		}
	}

	// Determine file format
	filename := header.Filename
	var format models.ImportFormat
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		format = models.ImportFormatCSV
	} else if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		format = models.ImportFormatXLSX
	} else {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return
	}

	// Parse file
	var rows []map[string]string
	var parseErr error

	if format == models.ImportFormatCSV {
		rows, parseErr = h.parseCSV(file)
	} else {
		rows, parseErr = h.parseXLSX(file)
	}

	if parseErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "PARSE_ERROR",
				Message: parseErr.Error(),
			},
		})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_FILE",
				Message: "The file contains no data rows",
			},
		})
		return
	}

	result := h.processImportWithBatching(
		tenantID.(string),
		rows,
		skipDuplicates,
		updateExisting,
		validateOnly,
		batchSize,
		maxRetries,
	)

	// Add processing time metrics
	result.ProcessingMs = time.Since(startTime).Milliseconds()
	if result.TotalBatches > 0 {
		result.AvgBatchMs = result.ProcessingMs / int64(result.TotalBatches)
	}

	h.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"rows":      result.TotalRows,
		"created":   result.CreatedCount,
		"updated":   result.UpdatedCount,
		"failed":    result.FailedCount,
		"ms":        result.ProcessingMs,
	}).Info("product import finished")

	c.JSON(http.StatusOK, result)
}

// processImportWithBatching handles large imports with batch processing,
// retry logic, and partial commits.
func (h *ImportHandler) processImportWithBatching(
	tenantID string,
	rows []map[string]string,
	skipDuplicates, updateExisting, validateOnly bool,
	batchSize, maxRetries int,
) *models.EnhancedImportResult {
	totalRows := len(rows)
	totalBatches := (totalRows + batchSize - 1) / batchSize

	result := &models.EnhancedImportResult{
		TotalRows:    totalRows,
		TotalBatches: totalBatches,
		BatchResults: make([]models.BatchResult, 0, totalBatches),
		Errors:       make([]models.ImportRowError, 0),
		CreatedIDs:   make([]string, 0),
		UpdatedIDs:   make([]string, 0),
	}

	for batchNum := 0; batchNum < totalBatches; batchNum++ {
		startIdx := batchNum * batchSize
		endIdx := startIdx + batchSize
		if endIdx > totalRows {
			endIdx = totalRows
		}

		batchRows := rows[startIdx:endIdx]
		startRow, _ := strconv.Atoi(batchRows[0]["_row"])
		endRow, _ := strconv.Atoi(batchRows[len(batchRows)-1]["_row"])

		batchResult := h.processBatchWithRetry(
			tenantID,
			batchRows, batchNum+1, startRow, endRow,
			skipDuplicates, updateExisting, validateOnly,
			maxRetries,
		)

		result.BatchResults = append(result.BatchResults, batchResult)

		// Aggregate results
		result.CreatedCount += batchResult.CreatedCount
		result.UpdatedCount += batchResult.UpdatedCount
		result.FailedCount += batchResult.FailedCount
		result.SkippedCount += batchResult.SkippedCount
		result.Errors = append(result.Errors, batchResult.Errors...)
		result.CreatedIDs = append(result.CreatedIDs, batchResult.CreatedIDs...)
		result.UpdatedIDs = append(result.UpdatedIDs, batchResult.UpdatedIDs...)
	}

	// For validation mode (validateOnly=true), SuccessCount = valid rows
	// (not created/updated). For actual import, SuccessCount = created + updated.
	if validateOnly {
		result.SuccessCount = totalRows - result.FailedCount
		result.Success = result.SuccessCount > 0
	} else {
		result.SuccessCount = result.CreatedCount + result.UpdatedCount
		result.Success = result.SuccessCount > 0 || result.SkippedCount > 0
	}

	return result
}

// processBatchWithRetry processes a single batch with retry logic for
// transient failures.
func (h *ImportHandler) processBatchWithRetry(
	tenantID string,
	rows []map[string]string,
	batchNum, startRow, endRow int,
	skipDuplicates, updateExisting, validateOnly bool,
	maxRetries int,
) models.BatchResult {
	var batchResult models.BatchResult
	batchResult.BatchNumber = batchNum
	batchResult.StartRow = startRow
	batchResult.EndRow = endRow

	for retry := 0; retry <= maxRetries; retry++ {
		batchResult.RetryCount = retry

		innerResult := h.processSingleBatch(
			tenantID,
			rows, skipDuplicates, updateExisting, validateOnly,
		)

		batchResult.CreatedCount = innerResult.CreatedCount
		batchResult.UpdatedCount = innerResult.UpdatedCount
		batchResult.FailedCount = innerResult.FailedCount
		batchResult.SkippedCount = innerResult.SkippedCount
		batchResult.Errors = innerResult.Errors
		batchResult.CreatedIDs = innerResult.CreatedIDs
		batchResult.UpdatedIDs = innerResult.UpdatedIDs
		batchResult.Success = innerResult.Success

		// If successful or if errors are validation errors (not transient), don't retry
		if batchResult.Success || !h.hasTransientErrors(batchResult.Errors) {
			break
		}

		// Wait before retry (exponential backoff)
		if retry < maxRetries {
			time.Sleep(time.Duration(100*(1<<retry)) * time.Millisecond)
		}
	}

	return batchResult
}

// hasTransientErrors checks if any errors are transient (DB connection, timeout, etc.)
func (h *ImportHandler) hasTransientErrors(errors []models.ImportRowError) bool {
	for _, err := range errors {
		if err.Code == "DB_ERROR" || err.Code == "BULK_CREATE_FAILED" || err.Code == "BULK_UPSERT_FAILED" {
			return true
		}
	}
	return false
}

// processSingleBatch processes a single batch of rows
func (h *ImportHandler) processSingleBatch(
	tenantID string,
	rows []map[string]string,
	skipDuplicates, updateExisting, validateOnly bool,
) *models.ImportResult {
	result := &models.ImportResult{
		TotalRows:  len(rows),
		Errors:     make([]models.ImportRowError, 0),
		CreatedIDs: make([]string, 0),
		UpdatedIDs: make([]string, 0),
	}

	products := make([]*models.Product, 0, len(rows))

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])

		h.validateRow(row, rowNum, result)

		// Skip row if it has validation errors
		if h.hasRowErrors(result, rowNum) {
			continue
		}

		sellingPrice, _ := decimal.NewFromString(row["sellingprice"])
		purchasePrice := decimal.Zero
		if row["purchaseprice"] != "" {
			purchasePrice, _ = decimal.NewFromString(row["purchaseprice"])
		}

		stockQuantity := 0
		if qty := parseOptionalInt(row["stockquantity"]); qty != nil {
			stockQuantity = *qty
		}

		status := models.ProductStatusActive
		if row["status"] != "" {
			status = models.ProductStatus(strings.ToUpper(row["status"]))
		}

		product := &models.Product{
			TenantID:         tenantID,
			Code:             row["code"],
			BaseCode:         optionalString(row["basecode"]),
			Name:             row["name"],
			Description:      optionalString(row["description"]),
			SellingPrice:     sellingPrice,
			PurchasePrice:    purchasePrice,
			Barcode:          optionalString(row["barcode"]),
			StockQuantity:    stockQuantity,
			VariantSignature: optionalString(row["variantsignature"]),
			Supplier:         optionalString(row["supplier"]),
			Status:           status,
		}

		products = append(products, product)
	}

	// If validate only, return validation results
	if validateOnly {
		result.Success = len(result.Errors) == 0
		result.SuccessCount = len(products)
		result.FailedCount = result.TotalRows - len(products)
		return result
	}

	// If there are validation errors for some rows, we still process valid rows
	if len(products) == 0 {
		result.Success = false
		result.FailedCount = result.TotalRows
		return result
	}

	// Execute bulk operation
	if updateExisting {
		h.executeBulkUpsert(tenantID, products, rows, result)
	} else {
		h.executeBulkCreate(tenantID, products, rows, skipDuplicates, result)
	}

	return result
}

// validateRow checks required fields and field formats for a single row.
func (h *ImportHandler) validateRow(row map[string]string, rowNum int, result *models.ImportResult) {
	if row["code"] == "" {
		h.addError(result, rowNum, "code", "REQUIRED", "Product code is required")
	}
	if row["name"] == "" {
		h.addError(result, rowNum, "name", "REQUIRED", "Product name is required")
	}
	if row["sellingprice"] == "" {
		h.addError(result, rowNum, "sellingPrice", "REQUIRED", "Selling price is required")
	} else if _, err := decimal.NewFromString(row["sellingprice"]); err != nil {
		h.addError(result, rowNum, "sellingPrice", "INVALID", "Selling price must be a valid number")
	}
	if row["purchaseprice"] != "" {
		if _, err := decimal.NewFromString(row["purchaseprice"]); err != nil {
			h.addError(result, rowNum, "purchasePrice", "INVALID", "Purchase price must be a valid number")
		}
	}
	if row["stockquantity"] != "" {
		if _, err := strconv.Atoi(row["stockquantity"]); err != nil {
			h.addError(result, rowNum, "stockQuantity", "INVALID", "Stock quantity must be an integer")
		}
	}
	if row["status"] != "" {
		switch models.ProductStatus(strings.ToUpper(row["status"])) {
		case models.ProductStatusActive, models.ProductStatusInactive:
		default:
			h.addError(result, rowNum, "status", "INVALID", "Status must be ACTIVE or INACTIVE")
		}
	}
	if sig := row["variantsignature"]; sig != "" {
		if lines := h.variantService.ParseSignature(sig); len(lines) == 0 {
			h.addError(result, rowNum, "variantSignature", "INVALID_SIGNATURE",
				"Variant signature does not match any catalog attribute, expected e.g. (Đen | Trắng) (S | M | L)")
		}
	}
}

// executeBulkCreate handles the bulk create operation
func (h *ImportHandler) executeBulkCreate(tenantID string, products []*models.Product, rows []map[string]string, skipDuplicates bool, result *models.ImportResult) {
	bulkResult, err := h.repo.BulkCreate(tenantID, products, skipDuplicates)
	if err != nil && bulkResult.Success == 0 && bulkResult.Skipped == 0 {
		result.Success = false
		result.Errors = append(result.Errors, models.ImportRowError{
			Row:     0,
			Code:    "BULK_CREATE_FAILED",
			Message: err.Error(),
		})
		return
	}

	for _, product := range bulkResult.Created {
		result.CreatedIDs = append(result.CreatedIDs, product.ID.String())
	}

	for _, bulkErr := range bulkResult.Errors {
		rowNum := 0
		if bulkErr.Index < len(rows) {
			rowNum, _ = strconv.Atoi(rows[bulkErr.Index]["_row"])
		}
		result.Errors = append(result.Errors, models.ImportRowError{
			Row:     rowNum,
			Code:    bulkErr.Code,
			Message: bulkErr.Message,
		})
	}

	result.Success = bulkResult.Success > 0 || bulkResult.Skipped > 0
	result.SuccessCount = bulkResult.Success
	result.CreatedCount = len(bulkResult.Created)
	result.FailedCount = bulkResult.Failed + (result.TotalRows - len(products))
	result.SkippedCount = result.TotalRows - len(products) - bulkResult.Failed + bulkResult.Skipped
}

// executeBulkUpsert handles the bulk upsert operation
func (h *ImportHandler) executeBulkUpsert(tenantID string, products []*models.Product, rows []map[string]string, result *models.ImportResult) {
	upsertResult, err := h.repo.BulkUpsert(tenantID, products)
	if err != nil && upsertResult.Success == 0 {
		result.Success = false
		result.Errors = append(result.Errors, models.ImportRowError{
			Row:     0,
			Code:    "BULK_UPSERT_FAILED",
			Message: err.Error(),
		})
		return
	}

	for _, product := range upsertResult.Created {
		result.CreatedIDs = append(result.CreatedIDs, product.ID.String())
	}

	for _, product := range upsertResult.Updated {
		result.UpdatedIDs = append(result.UpdatedIDs, product.ID.String())
	}

	for _, bulkErr := range upsertResult.Errors {
		rowNum := 0
		if bulkErr.Index < len(rows) {
			rowNum, _ = strconv.Atoi(rows[bulkErr.Index]["_row"])
		}
		result.Errors = append(result.Errors, models.ImportRowError{
			Row:     rowNum,
			Code:    bulkErr.Code,
			Message: bulkErr.Message,
		})
	}

	result.Success = upsertResult.Success > 0
	result.SuccessCount = upsertResult.Success
	result.CreatedCount = len(upsertResult.Created)
	result.UpdatedCount = len(upsertResult.Updated)
	result.FailedCount = upsertResult.Failed + (result.TotalRows - len(products))
	result.SkippedCount = result.TotalRows - len(products) - upsertResult.Failed
}

// parseCSV parses a CSV file into rows
func (h *ImportHandler) parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	// Read header
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Normalize headers
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		// Remove required marker if present
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1) // Track row number for error reporting
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

// parseXLSX parses an Excel file into rows
func (h *ImportHandler) parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	// Get first sheet (should be "Products")
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	// Prefer "Products" sheet if it exists
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheetName = name
			break
		}
	}

	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	// First row is header
	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
		headers[i] = strings.TrimSuffix(headers[i], " *")
	}

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2) // Track row number (1-indexed, +1 for header)
		rows = append(rows, row)
	}

	return rows, nil
}

// ExportProducts exports the tenant's catalog as an XLSX file with the same
// column set the import accepts, so an export can be edited and re-imported.
// POST /api/v1/products/export
func (h *ImportHandler) ExportProducts(c *gin.Context) {
	tenantID, _ := c.Get("tenant_id")

	query := &repository.ProductListQuery{
		Search:   c.Query("search"),
		Status:   models.ProductStatus(c.Query("status")),
		BaseCode: c.Query("baseCode"),
		Supplier: c.Query("supplier"),
		Page:     1,
		Limit:    exportPageSize,
		SortBy:   "code",
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	columns := models.ProductExportColumns()
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	rowNum := 2
	for {
		products, total, err := h.repo.GetProducts(tenantID.(string), query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "EXPORT_FAILED",
					Message: "Failed to load products for export",
				},
			})
			return
		}

		for i := range products {
			h.writeExportRow(f, sheetName, rowNum, &products[i])
			rowNum++
		}

		if int64(query.Page*query.Limit) >= total || len(products) == 0 {
			break
		}
		query.Page++
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=products_export_%s.xlsx", time.Now().Format("20060102")))

	f.Write(c.Writer)
}

func (h *ImportHandler) writeExportRow(f *excelize.File, sheetName string, rowNum int, p *models.Product) {
	values := []interface{}{
		p.Code,
		p.Name,
		p.SellingPrice.String(),
		p.PurchasePrice.String(),
		derefString(p.Barcode),
		p.StockQuantity,
		derefString(p.BaseCode),
		derefString(p.VariantSignature),
		derefString(p.Supplier),
		derefString(p.Description),
		string(p.Status),
	}
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
		f.SetCellValue(sheetName, cell, value)
	}
}

// addError is a helper to add an error to the result
func (h *ImportHandler) addError(result *models.ImportResult, rowNum int, column, code, message string) {
	result.Errors = append(result.Errors, models.ImportRowError{
		Row:     rowNum,
		Column:  column,
		Code:    code,
		Message: message,
	})
}

// hasRowErrors checks if the given row already has errors
func (h *ImportHandler) hasRowErrors(result *models.ImportResult, rowNum int) bool {
	for _, e := range result.Errors {
		if e.Row == rowNum {
			return true
		}
	}
	return false
}

// optionalString returns nil for empty strings, pointer otherwise
func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// parseOptionalInt parses an optional integer from a row field
func parseOptionalInt(value string) *int {
	if value == "" {
		return nil
	}
	if num, err := strconv.Atoi(value); err == nil {
		return &num
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
