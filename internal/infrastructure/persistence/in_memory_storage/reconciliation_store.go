// internal/infrastructure/persistence/in_memory_storage/reconciliation_store.go
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/google/uuid"
)

// ReconciliationStore записи ручной сверки в памяти процесса
type ReconciliationStore struct {
	mu      sync.RWMutex
	records map[string]*models.PaymentReconciliation // по payment_id
}

// NewReconciliationStore создает хранилище
func NewReconciliationStore() *ReconciliationStore {
	return &ReconciliationStore{records: make(map[string]*models.PaymentReconciliation)}
}

// Record создает запись или обновляет открытую запись того же платежа
func (s *ReconciliationStore) Record(ctx context.Context, rec *models.PaymentReconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.records[rec.PaymentID]; ok {
		existing.Status = rec.Status
		existing.Reason = rec.Reason
		existing.UpdatedAt = now
		*rec = *existing
		return nil
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	c := *rec
	s.records[rec.PaymentID] = &c
	return nil
}

// GetOpen возвращает открытую запись платежа или nil
func (s *ReconciliationStore) GetOpen(ctx context.Context, paymentID string) (*models.PaymentReconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[paymentID]
	if !ok || !rec.IsOpen() {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

// Resolve закрывает запись
func (s *ReconciliationStore) Resolve(ctx context.Context, paymentID string, status models.ReconciliationStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[paymentID]
	if !ok {
		return fmt.Errorf("запись сверки для платежа %s не найдена", paymentID)
	}
	rec.Status = status
	rec.Reason = reason
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// ListOpen открытые записи, старые первыми
func (s *ReconciliationStore) ListOpen(ctx context.Context, limit int) ([]*models.PaymentReconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.PaymentReconciliation
	for _, rec := range s.records {
		if rec.IsOpen() {
			c := *rec
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
