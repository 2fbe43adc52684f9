package service

import (
	"context"
	"fmt"
	"time"

	billingdomain "github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	"github.com/smallbiznis/garagedesk/internal/invoice/format"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxNumberSkips bounds how far allocation walks past numbers that are
// already taken, e.g. after the counter was reset by hand.
const maxNumberSkips = 1000

type allocation struct {
	Number   string
	Settings billingdomain.BillingSetting
}

// allocateNumber reserves the next free invoice number. The billing
// settings row is locked for the rest of tx, so concurrent allocations
// queue behind each other. When the row is missing it is created from seed.
func (s *Service) allocateNumber(ctx context.Context, tx *gorm.DB, seed billingdomain.BillingSetting, issuedAt time.Time) (allocation, error) {
	row, err := s.settingsRepo.FindForUpdate(ctx, tx)
	if err != nil {
		return allocation{}, err
	}
	if row == nil {
		seed.ID = billingdomain.SingletonID
		if err := s.settingsRepo.InsertIfMissing(ctx, tx, &seed); err != nil {
			return allocation{}, fmt.Errorf("create billing settings: %w", err)
		}
		row, err = s.settingsRepo.FindForUpdate(ctx, tx)
		if err != nil {
			return allocation{}, err
		}
		if row == nil {
			return allocation{}, billingdomain.ErrMissingSettings
		}
	}

	seq := row.NextInvoiceNumber
	if seq < 1 {
		seq = 1
	}
	for skipped := 0; skipped <= maxNumberSkips; skipped++ {
		number, err := format.FormatInvoiceNumber(format.DefaultInvoiceNumberTemplate, row.InvoicePrefix, issuedAt, seq)
		if err != nil {
			return allocation{}, err
		}
		taken, err := s.repo.NumberExists(ctx, tx, number)
		if err != nil {
			return allocation{}, err
		}
		if taken {
			seq++
			continue
		}
		if skipped > 0 {
			s.log.Warn("invoice counter skipped numbers already in use",
				zap.Int64("configured", row.NextInvoiceNumber),
				zap.Int64("allocated", seq),
			)
		}
		if err := s.settingsRepo.UpdateCounter(ctx, tx, seq+1); err != nil {
			return allocation{}, err
		}
		return allocation{Number: number, Settings: *row}, nil
	}
	return allocation{}, invoicedomain.ErrNumberSpaceExhausted
}
