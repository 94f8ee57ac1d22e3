// services/repasse.go
package services

import (
	"context"
	"errors"

	"sementes-play/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrRepasseNotFound   = errors.New("repasse not found")
	ErrRepasseNotPending = errors.New("repasse is not pending")
)

// RepasseApproval is what Approve did.
type RepasseApproval struct {
	Repasse      models.PartnerRepasse `json:"repasse"`
	Contribution decimal.Decimal       `json:"contribution"`
	Fund         *models.Fund          `json:"fund"`
}

type RepasseService struct {
	DB     *gorm.DB
	Ledger *FundLedger
	Log    logrus.FieldLogger
}

func NewRepasseService(db *gorm.DB, ledger *FundLedger, log logrus.FieldLogger) *RepasseService {
	return &RepasseService{DB: db, Ledger: ledger, Log: log}
}

// Approve marks a pending repasse as paid and tops up the active fund with
// its share, in one transaction.
func (s *RepasseService) Approve(ctx context.Context, repasseID string) (*RepasseApproval, error) {
	var (
		out    *RepasseApproval
		ledger *FundLedger
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var repasse models.PartnerRepasse
		if err := tx.Where("id = ?", repasseID).Limit(1).Find(&repasse).Error; err != nil {
			return err
		}
		if repasse.ID == "" {
			return ErrRepasseNotFound
		}
		if repasse.Status != models.RepasseStatusPending {
			return ErrRepasseNotPending
		}

		now := s.Ledger.now()
		res := tx.Model(&models.PartnerRepasse{}).
			Where("id = ? AND status = ?", repasse.ID, models.RepasseStatusPending).
			Updates(map[string]interface{}{
				"status":      models.RepasseStatusPaid,
				"approved_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRepasseNotPending
		}
		repasse.Status = models.RepasseStatusPaid
		repasse.ApprovedAt = &now

		contribution := repasse.Value.Mul(ContributionShare)
		ledger = s.Ledger.WithTx(tx)
		fund, err := ledger.AddToActiveFund(ctx, contribution, 1)
		if err != nil {
			return err
		}

		out = &RepasseApproval{Repasse: repasse, Contribution: contribution, Fund: fund}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ledger.Committed()

	s.Log.WithFields(logrus.Fields{
		"repasse_id":   out.Repasse.ID,
		"contribution": out.Contribution.String(),
		"fund_id":      out.Fund.ID,
	}).Info("[REPASSE] approved")
	return out, nil
}
