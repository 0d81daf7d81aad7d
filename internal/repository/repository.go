package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/entity"
)

// CorrectionLogRepository persists applied corrections to MySQL for the
// reporting screens.
type CorrectionLogRepository struct {
	db *sql.DB
}

func NewCorrectionLogRepository(db *sql.DB) *CorrectionLogRepository {
	return &CorrectionLogRepository{db}
}

// InsertBatch records one correction batch in a single transaction.
func (r *CorrectionLogRepository) InsertBatch(ctx context.Context, entries []entity.CorrectionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Insert entries with batch
	query := `
		INSERT INTO correction_log (kind, vendor_id, date, item_id, item_name, old_quantity, new_quantity, applied_by, applied_at)
		VALUES `

	var values []interface{}
	for _, entry := range entries {
		query += "(?, ?, ?, ?, ?, ?, ?, ?, ?),"
		values = append(values, entry.Key.Kind, entry.Key.VendorID, entry.Key.Date, entry.ItemID, entry.ItemName, entry.OldQuantity, entry.NewQuantity, entry.AppliedBy, entry.AppliedAt)
	}

	// Remove the trailing comma
	query = query[:len(query)-1]

	_, err = tx.ExecContext(ctx, query, values...)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ListByVendorDate returns the correction history for one vendor and date,
// oldest first.
func (r *CorrectionLogRepository) ListByVendorDate(ctx context.Context, key entity.DraftKey) ([]entity.CorrectionLogEntry, error) {
	query := `
		SELECT id, kind, vendor_id, date, item_id, item_name, old_quantity, new_quantity, applied_by, applied_at
		FROM correction_log
		WHERE kind = ? AND vendor_id = ? AND date = ?
		ORDER BY applied_at, id`

	rows, err := r.db.QueryContext(ctx, query, key.Kind, key.VendorID, key.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []entity.CorrectionLogEntry
	for rows.Next() {
		entry := entity.CorrectionLogEntry{}
		var date time.Time
		err := rows.Scan(&entry.ID, &entry.Key.Kind, &entry.Key.VendorID, &date, &entry.ItemID, &entry.ItemName, &entry.OldQuantity, &entry.NewQuantity, &entry.AppliedBy, &entry.AppliedAt)
		if err != nil {
			return nil, err
		}
		entry.Key.Date = date.Format("2006-01-02")
		entries = append(entries, entry)
	}

	return entries, nil
}
