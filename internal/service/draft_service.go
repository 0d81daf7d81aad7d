package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// DraftStore is the local draft mirror consulted before the backend.
type DraftStore interface {
	Get(ctx context.Context, key entity.DraftKey) (*entity.DraftSnapshot, bool)
	Put(ctx context.Context, key entity.DraftKey, snapshot *entity.DraftSnapshot) error
	Purge(ctx context.Context, prefix string) (int, error)
}

// Backend is the POS backend of record.
type Backend interface {
	FetchLoadRows(ctx context.Context, key entity.DraftKey) ([]entity.LoadRow, error)
	ResolveItem(ctx context.Context, name string) (string, error)
	WriteCorrection(ctx context.Context, key entity.DraftKey, itemName string, quantity int) error
}

// CorrectionLog records applied corrections for reporting.
type CorrectionLog interface {
	InsertBatch(ctx context.Context, entries []entity.CorrectionLogEntry) error
	ListByVendorDate(ctx context.Context, key entity.DraftKey) ([]entity.CorrectionLogEntry, error)
}

// DraftService reconciles local drafts against the backend of record and
// applies quantity corrections with the backend as source of truth.
type DraftService struct {
	store       DraftStore
	backend     Backend
	corrections CorrectionLog
	kafkaWriter *kafka.Writer
}

// NewDraftService creates a new instance of DraftService. corrections and
// kafkaWriter may be nil; audit logging and eventing are then skipped.
func NewDraftService(store DraftStore, backend Backend, corrections CorrectionLog, kafkaWriter *kafka.Writer) *DraftService {
	return &DraftService{
		store:       store,
		backend:     backend,
		corrections: corrections,
		kafkaWriter: kafkaWriter,
	}
}

// Load returns the authoritative draft for key. The local store wins whenever
// it holds real rows; the backend is consulted only when the draft is absent,
// empty, placeholder-only, or a refresh was requested. A backend failure
// yields an empty unsynced snapshot, never an error: "no data yet" is a
// normal state for the UI.
func (s *DraftService) Load(ctx context.Context, key entity.DraftKey, refresh bool) *entity.DraftSnapshot {
	if !refresh {
		if snapshot, ok := s.store.Get(ctx, key); ok && snapshot.HasData() {
			return snapshot
		}
	}

	rows, err := s.backend.FetchLoadRows(ctx, key)
	if err != nil {
		logger.Error().Err(err).Msgf("Error fetching load rows for %s", key)
		return entity.EmptySnapshot(key)
	}

	snapshot := &entity.DraftSnapshot{
		Key:              key,
		Items:            make([]entity.LineItem, 0, len(rows)),
		CapturedAtMillis: time.Now().UnixMilli(),
		Synced:           true,
	}
	for _, row := range rows {
		itemID, err := s.backend.ResolveItem(ctx, row.ItemName)
		if err != nil {
			// Unresolvable rows are dropped, not fatal.
			logger.Warn().Err(err).Msgf("Dropping load row %q for %s", row.ItemName, key)
			continue
		}

		item := entity.LineItem{
			ItemID:          itemID,
			Name:            row.ItemName,
			QuantityOrdered: row.QuantityOrdered,
			Discount:        row.Discount,
			Bonus:           row.Bonus,
			Returned:        row.Returned,
			Expired:         row.Expired,
			UnitPrice:       row.UnitPrice,
			RoleA:           row.RoleA,
			RoleB:           row.RoleB,
		}
		item.Recompute()
		snapshot.Items = append(snapshot.Items, item)
	}

	if err := s.store.Put(ctx, key, snapshot); err != nil {
		logger.Warn().Err(err).Msgf("Error mirroring draft %s to store", key)
	}

	return snapshot
}

// ApplyCorrections applies a batch of edited quantities. Every surviving
// request is written to the backend concurrently; the local draft is only
// mirrored when the whole batch succeeded. A mixed state (some items
// corrected locally, some not) is worse than asking the user to retry the
// batch, so any backend failure leaves the stored draft untouched.
func (s *DraftService) ApplyCorrections(ctx context.Context, key entity.DraftKey, requests []entity.CorrectionRequest, appliedBy string) *entity.CorrectionResult {
	current := s.Load(ctx, key, false)

	byID := make(map[string]entity.LineItem, len(current.Items))
	for _, item := range current.Items {
		byID[item.ItemID] = item
	}

	filtered := make([]entity.CorrectionRequest, 0, len(requests))
	for _, req := range requests {
		item, ok := byID[req.ItemID]
		if !ok {
			// Nothing staged for this item, so there is nothing to correct.
			logger.Warn().Msgf("Dropping correction for unknown item %s on %s", req.ItemID, key)
			continue
		}
		if item.QuantityOrdered == req.NewQuantityOrdered {
			continue
		}
		filtered = append(filtered, req)
	}

	if len(filtered) == 0 {
		return &entity.CorrectionResult{Status: entity.CorrectionNoChanges}
	}

	resultCh := make(chan struct {
		ItemID string
		Err    error
	}, len(filtered))

	for _, req := range filtered {
		go func(req entity.CorrectionRequest) {
			err := s.backend.WriteCorrection(ctx, key, byID[req.ItemID].Name, req.NewQuantityOrdered)
			resultCh <- struct {
				ItemID string
				Err    error
			}{ItemID: req.ItemID, Err: err}
		}(req)
	}

	var failed []string
	for range filtered {
		result := <-resultCh
		if result.Err != nil {
			logger.Error().Err(result.Err).Msgf("Correction rejected for item %s on %s", result.ItemID, key)
			failed = append(failed, result.ItemID)
		}
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return &entity.CorrectionResult{Status: entity.CorrectionPartialFailure, FailedItemIDs: failed}
	}

	s.mirrorCorrections(ctx, key, current, filtered)

	entries := make([]entity.CorrectionLogEntry, 0, len(filtered))
	now := time.Now()
	for _, req := range filtered {
		old := byID[req.ItemID]
		entries = append(entries, entity.CorrectionLogEntry{
			Key:         key,
			ItemID:      req.ItemID,
			ItemName:    old.Name,
			OldQuantity: old.QuantityOrdered,
			NewQuantity: req.NewQuantityOrdered,
			AppliedBy:   appliedBy,
			AppliedAt:   now,
		})
	}

	if s.corrections != nil {
		if err := s.corrections.InsertBatch(ctx, entries); err != nil {
			logger.Error().Err(err).Msgf("Error recording corrections for %s", key)
		}
	}

	if err := s.publishCorrectionsEvent(ctx, key, entries); err != nil {
		logger.Error().Err(err).Msgf("Error publishing corrections event for %s", key)
	}

	return &entity.CorrectionResult{Status: entity.CorrectionApplied, AppliedCount: len(filtered)}
}

// mirrorCorrections updates the stored draft after the backend accepted the
// whole batch. Storage failure is tolerated: the backend already holds the
// truth and the next load falls back to it.
func (s *DraftService) mirrorCorrections(ctx context.Context, key entity.DraftKey, fallback *entity.DraftSnapshot, applied []entity.CorrectionRequest) {
	snapshot, ok := s.store.Get(ctx, key)
	if !ok {
		snapshot = fallback
	}

	for _, req := range applied {
		for i := range snapshot.Items {
			if snapshot.Items[i].ItemID == req.ItemID {
				snapshot.Items[i].QuantityOrdered = req.NewQuantityOrdered
				snapshot.Items[i].Recompute()
				break
			}
		}
	}
	snapshot.CapturedAtMillis = time.Now().UnixMilli()

	if err := s.store.Put(ctx, key, snapshot); err != nil {
		logger.Warn().Err(err).Msgf("Error mirroring corrected draft %s", key)
	}
}

func (s *DraftService) publishCorrectionsEvent(ctx context.Context, key entity.DraftKey, entries []entity.CorrectionLogEntry) error {
	if s.kafkaWriter == nil {
		return nil
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	// draft.corrected.V3
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("draft.corrected.%s", key.VendorID)),
		Value: payload,
	}

	return s.kafkaWriter.WriteMessages(ctx, msg)
}

// Purge removes every stored draft under prefix. Maintenance surface.
func (s *DraftService) Purge(ctx context.Context, prefix string) (int, error) {
	return s.store.Purge(ctx, prefix)
}

// Corrections lists the recorded correction history for a vendor and date.
func (s *DraftService) Corrections(ctx context.Context, key entity.DraftKey) ([]entity.CorrectionLogEntry, error) {
	if s.corrections == nil {
		return []entity.CorrectionLogEntry{}, nil
	}
	return s.corrections.ListByVendorDate(ctx, key)
}
