// internal/core/domain/payment/completion.go
package payment

import (
	"context"
	"fmt"

	"stars-subscription-bot/internal/core/domain/plan"
	"stars-subscription-bot/internal/infrastructure/metrics"
	"stars-subscription-bot/internal/infrastructure/persistence/postgres/models"
	"stars-subscription-bot/pkg/logger"
)

// CompletionRequest ручное разрешение платежа администратором
type CompletionRequest struct {
	PaymentID      string
	TelegramUserID int64
	Success        bool
}

// Complete разрешает платеж, который не удалось сопоставить автоматически.
// Источник данных: запись реестра, иначе открытая запись журнала сверки.
func (h *ConfirmationHandler) Complete(ctx context.Context, req CompletionRequest) (*ConfirmationResult, error) {
	if req.PaymentID == "" {
		return nil, &ValidationError{Field: "paymentId", Reason: "не указан id платежа"}
	}
	if req.TelegramUserID <= 0 {
		return nil, &ValidationError{Field: "telegramUserId", Reason: "не указан пользователь"}
	}

	unlock, err := h.locker.Lock(ctx, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки платежа %s: %w", req.PaymentID, err)
	}
	defer unlock()

	pending, err := h.registry.Get(ctx, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения реестра: %w", err)
	}

	open, err := h.reconciliation.GetOpen(ctx, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала сверки: %w", err)
	}

	if pending == nil {
		if open == nil {
			return nil, ErrPaymentNotFound
		}
		pending, err = pendingFromReconciliation(open, req.TelegramUserID)
		if err != nil {
			return nil, err
		}
	}

	chatID := pending.ChatID
	if chatID == 0 {
		chatID = pending.UserID
	}

	if !req.Success {
		return h.reject(ctx, pending, open != nil, chatID)
	}

	if pending.Processed {
		logger.Info("ℹ️ Платеж %s уже обработан, ручное подтверждение не требуется", pending.ID)
		return &ConfirmationResult{Outcome: OutcomeDuplicate, PaymentID: pending.ID}, nil
	}

	logger.Info("🛠️ Ручное подтверждение платежа %s (user %d, plan %s)", pending.ID, pending.UserID, pending.Plan)
	return h.activatePending(ctx, pending, "", chatID)
}

func (h *ConfirmationHandler) reject(ctx context.Context, pending *PendingPayment, hasOpen bool, chatID int64) (*ConfirmationResult, error) {
	reason := "отклонено администратором"
	if hasOpen {
		if err := h.reconciliation.Resolve(ctx, pending.ID, models.ReconciliationRejected, reason); err != nil {
			return nil, fmt.Errorf("ошибка закрытия записи сверки: %w", err)
		}
	} else {
		rec := reconciliationFromPending(pending)
		rec.Status = models.ReconciliationRejected
		rec.Reason = reason
		if err := h.reconciliation.Record(ctx, rec); err != nil {
			return nil, fmt.Errorf("ошибка записи отказа: %w", err)
		}
	}

	h.notify(ctx, chatID, paymentFailedText(pending.ID))
	metrics.Get().Confirmations.WithLabelValues(string(OutcomeRejected)).Inc()
	logger.Payment("платеж отклонен", pending.ID, pending.UserID, pending.Plan)
	return &ConfirmationResult{Outcome: OutcomeRejected, PaymentID: pending.ID}, nil
}

func pendingFromReconciliation(rec *models.PaymentReconciliation, telegramUserID int64) (*PendingPayment, error) {
	planCode := rec.Plan
	if planCode == "" {
		p, ok := plan.ByStars(rec.StarsAmount)
		if !ok {
			return nil, &ValidationError{Field: "plan", Reason: fmt.Sprintf("не удалось определить план по сумме %d", rec.StarsAmount)}
		}
		planCode = p.Code
	}

	userID := rec.TelegramUserID
	if userID == 0 {
		userID = telegramUserID
	} else if userID != telegramUserID {
		logger.Warn("⚠️ Платеж %s записан на пользователя %d, в запросе указан %d", rec.PaymentID, userID, telegramUserID)
	}

	return &PendingPayment{
		ID:          rec.PaymentID,
		UserID:      userID,
		ChatID:      rec.ChatID,
		Plan:        planCode,
		StarsAmount: rec.StarsAmount,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
