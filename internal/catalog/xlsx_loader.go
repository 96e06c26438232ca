package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Header is the expected first row of a catalog sheet.
var Header = []string{"id", "name", "price", "old_price", "image"}

const (
	colID = iota
	colName
	colPrice
	colOldPrice
	colImage
)

// LoadXLSX reads products from the first sheet of the workbook at filePath.
// The first row is a header. Rows with a blank id or an unparseable price are
// skipped.
func LoadXLSX(filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	products := make([]model.Product, 0, len(rows)-1)
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		product, ok := parseRow(row)
		if !ok {
			skipped++
			continue
		}
		products = append(products, product)
	}

	logger.Info("Catalog sheet loaded", map[string]interface{}{
		"file":     filePath,
		"sheet":    sheetName,
		"products": len(products),
		"skipped":  skipped,
	})
	return products, nil
}

func parseRow(row []string) (model.Product, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	id := cell(colID)
	if id == "" {
		return model.Product{}, false
	}

	price, err := parseAmount(cell(colPrice))
	if err != nil || price < 0 {
		return model.Product{}, false
	}

	product := model.Product{
		ID:    id,
		Name:  cell(colName),
		Price: price,
		Image: cell(colImage),
	}
	if raw := cell(colOldPrice); raw != "" {
		if old, err := parseAmount(raw); err == nil && old > 0 {
			product.OldPrice = &old
		}
	}
	return product, true
}

// parseAmount accepts plain integers and grouped ones like "1,250,000".
func parseAmount(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}

// WriteXLSX saves products as a catalog sheet readable by LoadXLSX.
func WriteXLSX(filePath string, products []model.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if err := f.SetSheetRow(sheetName, "A1", &Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range products {
		var oldPrice interface{}
		if p.OldPrice != nil {
			oldPrice = *p.OldPrice
		}
		row := []interface{}{p.ID, p.Name, p.Price, oldPrice, p.Image}

		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cellName, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save XLSX file: %w", err)
	}
	return nil
}
