// internal/core/domain/payment/ids.go
package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Источники id платежа
const (
	SourceInvoice = "pay"
	SourceDirect  = "direct"
)

// NewPaymentID генерирует id вида source_timestamp_random
func NewPaymentID(source string, now time.Time) string {
	random := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", source, now.UnixMilli(), random)
}
