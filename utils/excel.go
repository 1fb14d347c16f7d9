package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// EnsureDirectoryExists ensures the specified directory exists before file saving
func EnsureDirectoryExists(filePath string) error {
	dir := filepath.Dir(filePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return fmt.Errorf("error creating directory: %v", err)
		}
	}
	return nil
}

// GenerateMismatchWorkbook writes the unresolved-reference mismatches of one
// import run into an Excel workbook next to the text report, for back-office
// review of which legacy line items were dropped.
func GenerateMismatchWorkbook(sessionDir, sessionID string, mismatches []string) (string, error) {
	filePath := filepath.Join(sessionDir, fmt.Sprintf("mismatches_%s.xlsx", sessionID))
	if err := EnsureDirectoryExists(filePath); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	sheetName := "Mismatches"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.DeleteSheet("Sheet1")

	if err := f.SetCellValue(sheetName, "A1", "#"); err != nil {
		return "", err
	}
	if err := f.SetCellValue(sheetName, "B1", "Mismatch"); err != nil {
		return "", err
	}

	for i, mismatch := range mismatches {
		rowNum := i + 2
		if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), i+1); err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), mismatch); err != nil {
			return "", err
		}
	}

	f.SetActiveSheet(index)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving workbook: %v", err)
	}
	return filePath, nil
}
