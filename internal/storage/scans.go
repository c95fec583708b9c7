package storage

import (
	"context"
	"fmt"

	"github.com/hmallory/toytill/internal/model"
)

// RecordScan persists the trace of an accepted identification.
func (s *SQLiteStorage) RecordScan(ctx context.Context, record model.ScanRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScanRecord(&record); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_history (id, name, category, price_cents, provenance, confidence)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Name, string(record.Category), record.PriceCents,
		string(record.Provenance), record.Confidence)
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// RecentScans returns up to limit scan records, newest first.
func (s *SQLiteStorage) RecentScans(ctx context.Context, limit int) ([]model.ScanRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, price_cents, provenance, confidence, created_at
		 FROM scan_history
		 ORDER BY created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ScanRecord
	for rows.Next() {
		var record model.ScanRecord
		var category, provenance string
		if err := rows.Scan(&record.ID, &record.Name, &category, &record.PriceCents,
			&provenance, &record.Confidence, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		record.Category = model.Category(category)
		record.Provenance = model.Provenance(provenance)
		records = append(records, record)
	}
	return records, rows.Err()
}
