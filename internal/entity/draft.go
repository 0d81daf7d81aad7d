package entity

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// KindRoute is the default draft kind: one vendor's route load ("cargue")
	// for one business date.
	KindRoute = "cargue"

	dateLayout = "2006-01-02"

	storagePrefix = "draft"

	// The POS frontend seeds new route loads with a single row named
	// "Servicio" and nothing ordered. A draft holding only that row is empty.
	placeholderItemName = "servicio"
)

// DraftKey identifies one draft snapshot: a kind, a vendor and a business date.
type DraftKey struct {
	Kind     string `json:"kind"`
	VendorID string `json:"vendor_id"`
	Date     string `json:"date"` // ISO day, e.g. 2025-01-20
}

// NewDraftKey builds a key at day granularity.
func NewDraftKey(kind, vendorID string, date time.Time) DraftKey {
	return DraftKey{Kind: kind, VendorID: vendorID, Date: date.UTC().Format(dateLayout)}
}

// ParseDate parses an ISO business date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// String renders the storage key. All storage key construction goes through
// here and KeyPrefix; key strings are never assembled at call sites.
func (k DraftKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", storagePrefix, k.Kind, k.VendorID, k.Date)
}

// KeyPrefix is the storage prefix covering every date for one vendor and kind.
func KeyPrefix(kind, vendorID string) string {
	return fmt.Sprintf("%s:%s:%s", storagePrefix, kind, vendorID)
}

// LineItem is one staged row of a route load.
type LineItem struct {
	ItemID          string  `json:"item_id"`
	Name            string  `json:"name"`
	QuantityOrdered int     `json:"quantity_ordered"`
	Discount        int     `json:"discount"`
	Bonus           int     `json:"bonus"`
	Returned        int     `json:"returned"`
	Expired         int     `json:"expired"`
	UnitPrice       float64 `json:"unit_price"`
	RoleA           bool    `json:"role_a"`
	RoleB           bool    `json:"role_b"`
	Total           int     `json:"total"`
	NetValue        float64 `json:"net_value"`
}

// Recompute refreshes the derived fields. Total and NetValue are never
// written directly; every mutation of the stored fields must call this.
func (li *LineItem) Recompute() {
	li.Total = li.QuantityOrdered - li.Discount + li.Bonus - li.Returned - li.Expired
	li.NetValue = math.Round(float64(li.Total) * li.UnitPrice)
}

// DraftSnapshot is the unit of storage: the whole snapshot is written on
// every save, never patched.
type DraftSnapshot struct {
	Key              DraftKey   `json:"key"`
	Items            []LineItem `json:"items"`
	CapturedAtMillis int64      `json:"captured_at_millis"`
	Synced           bool       `json:"synced"`
}

// EmptySnapshot is the "no data yet" snapshot returned when neither the
// store nor the backend has rows for a key.
func EmptySnapshot(key DraftKey) *DraftSnapshot {
	return &DraftSnapshot{Key: key, Items: []LineItem{}, CapturedAtMillis: time.Now().UnixMilli()}
}

// HasData reports whether the snapshot holds real rows. A snapshot holding
// only the frontend's placeholder row counts as empty.
func (s *DraftSnapshot) HasData() bool {
	return s != nil && len(s.Items) > 0 && !IsPlaceholderOnly(s.Items)
}

// IsPlaceholderOnly reports whether items is exactly the frontend's
// placeholder row: a single line named "Servicio" with nothing ordered.
func IsPlaceholderOnly(items []LineItem) bool {
	if len(items) != 1 {
		return false
	}
	item := items[0]
	return strings.EqualFold(strings.TrimSpace(item.Name), placeholderItemName) && item.QuantityOrdered == 0
}

// LoadRow is one raw row from the backend of record, before catalog
// resolution.
type LoadRow struct {
	ItemName        string  `json:"item_name"`
	QuantityOrdered int     `json:"quantity_ordered"`
	Discount        int     `json:"discount"`
	Bonus           int     `json:"bonus"`
	Returned        int     `json:"returned"`
	Expired         int     `json:"expired"`
	RoleA           bool    `json:"role_a"`
	RoleB           bool    `json:"role_b"`
	UnitPrice       float64 `json:"unit_price"`
}

// CorrectionRequest is one user-edited quantity. Transient, built by the
// HTTP layer, never persisted as-is.
type CorrectionRequest struct {
	Key                DraftKey `json:"key"`
	ItemID             string   `json:"item_id"`
	NewQuantityOrdered int      `json:"new_quantity_ordered"`
}

// Correction batch outcomes.
const (
	CorrectionApplied        = "applied"
	CorrectionNoChanges      = "no_changes"
	CorrectionPartialFailure = "partial_failure"
)

// CorrectionResult is the aggregate outcome of one correction batch.
type CorrectionResult struct {
	Status        string   `json:"status"`
	AppliedCount  int      `json:"applied_count"`
	FailedItemIDs []string `json:"failed_item_ids,omitempty"`
}

// CorrectionLogEntry is one applied correction, recorded for reporting.
type CorrectionLogEntry struct {
	ID          int       `json:"id"`
	Key         DraftKey  `json:"key"`
	ItemID      string    `json:"item_id"`
	ItemName    string    `json:"item_name"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	AppliedBy   string    `json:"applied_by"`
	AppliedAt   time.Time `json:"applied_at"`
}

/*
MySQL table:

CREATE TABLE correction_log (
	id INT AUTO_INCREMENT PRIMARY KEY,
	kind VARCHAR(50) NOT NULL,
	vendor_id VARCHAR(50) NOT NULL,
	date DATE NOT NULL,
	item_id VARCHAR(50) NOT NULL,
	item_name VARCHAR(255) NOT NULL,
	old_quantity INT NOT NULL,
	new_quantity INT NOT NULL,
	applied_by VARCHAR(100) NOT NULL,
	applied_at DATETIME NOT NULL
);
*/
