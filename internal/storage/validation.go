package storage

import (
	"context"
	"fmt"

	"github.com/hmallory/toytill/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return nil
}

func validateString(s string, paramName string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", paramName)
	}
	return nil
}

func validateScanRecord(record *model.ScanRecord) error {
	if record == nil {
		return fmt.Errorf("scan record cannot be nil")
	}
	if record.ID == "" {
		return fmt.Errorf("scan record ID cannot be empty")
	}
	if record.Name == "" {
		return fmt.Errorf("scan record name cannot be empty")
	}
	if record.PriceCents < 0 {
		return fmt.Errorf("scan record price cannot be negative")
	}
	return nil
}
