package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrateCorrectionLog creates the correction_log table if it does not exist.
func AutoMigrateCorrectionLog(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS correction_log (
			id INT AUTO_INCREMENT PRIMARY KEY,
			kind VARCHAR(50) NOT NULL,
			vendor_id VARCHAR(50) NOT NULL,
			date DATE NOT NULL,
			item_id VARCHAR(50) NOT NULL,
			item_name VARCHAR(255) NOT NULL,
			old_quantity INT NOT NULL,
			new_quantity INT NOT NULL,
			applied_by VARCHAR(100) NOT NULL,
			applied_at DATETIME NOT NULL,
			INDEX idx_correction_log_vendor_date (kind, vendor_id, date)
		);
	`
	for _, db := range dbs {
		_, err := db.Exec(query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
				if err == nil {
					break
				}
			}
		}
	}
	return nil
}
