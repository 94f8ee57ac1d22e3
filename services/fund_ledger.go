// services/fund_ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sementes-play/metrics"
	"sementes-play/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrActiveFundExists is returned by CreateActiveFund when another fund
	// already holds the active slot.
	ErrActiveFundExists = errors.New("an active fund already exists")

	// ContributionShare is the part of every paid repasse owed to the fund.
	ContributionShare = decimal.RequireFromString("0.25")

	// IntegrityTolerance is the largest expected/actual gap still considered healthy (exclusive).
	IntegrityTolerance = decimal.RequireFromString("0.01")
)

// ProblemMultipleActiveFunds flags more than one undistributed fund.
const ProblemMultipleActiveFunds = "MULTIPLE_ACTIVE_FUNDS"

// FundLedger owns the active shared fund. It works on whatever session it
// holds: the pool-backed handle, or a caller's transaction via WithTx.
type FundLedger struct {
	DB  *gorm.DB
	Log logrus.FieldLogger
	Now func() time.Time

	// pending holds metric updates for writes made inside a caller's
	// transaction until Committed is called.
	pending *[]func()
}

func NewFundLedger(db *gorm.DB, log logrus.FieldLogger) *FundLedger {
	return &FundLedger{DB: db, Log: log, Now: time.Now}
}

// WithTx returns a copy of the ledger bound to tx, so a contribution can be
// part of a larger all-or-nothing operation. Metrics for its writes are
// recorded only once the caller reports the commit through Committed.
func (s *FundLedger) WithTx(tx *gorm.DB) *FundLedger {
	cp := *s
	cp.DB = tx
	cp.pending = &[]func(){}
	return &cp
}

// Committed records the metrics held back since WithTx. Not calling it
// (rollback) discards them.
func (s *FundLedger) Committed() {
	if s.pending == nil {
		return
	}
	for _, record := range *s.pending {
		record()
	}
	*s.pending = nil
}

func (s *FundLedger) record(fn func()) {
	if s.pending != nil {
		*s.pending = append(*s.pending, fn)
		return
	}
	fn()
}

func (s *FundLedger) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// FindActiveFund returns the most recently started undistributed fund, or nil
// when there is none. Multiple active funds are not resolved here; see
// CheckIntegrity.
func (s *FundLedger) FindActiveFund(ctx context.Context) (*models.Fund, error) {
	var fund models.Fund
	err := s.DB.WithContext(ctx).
		Where("distributed = ?", false).
		Order("start_date DESC").
		Limit(1).
		Find(&fund).Error
	if err != nil {
		return nil, err
	}
	if fund.ID == "" {
		return nil, nil
	}
	return &fund, nil
}

// CreateActiveFund opens a new fund. Start and end are both stamped with the
// current time; the distribution process overwrites the end date.
func (s *FundLedger) CreateActiveFund(ctx context.Context, cycle int, initialValue decimal.Decimal) (*models.Fund, error) {
	fund, created, err := s.claimActiveSlot(ctx, cycle, initialValue)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrActiveFundExists
	}

	s.record(func() { metrics.RecordFundCreated("explicit") })
	s.Log.WithFields(logrus.Fields{"fund_id": fund.ID, "cycle": fund.Cycle}).Info("[FUND] active fund created")
	return fund, nil
}

// AddToActiveFund adds value to the active fund. With no active fund, a new
// one is created already holding value.
func (s *FundLedger) AddToActiveFund(ctx context.Context, value decimal.Decimal, cycleIfMissing int) (*models.Fund, error) {
	active, err := s.FindActiveFund(ctx)
	if err != nil {
		return nil, err
	}

	if active == nil {
		fund, created, err := s.claimActiveSlot(ctx, cycleIfMissing, value)
		if err != nil {
			return nil, err
		}
		if created {
			s.record(func() {
				metrics.RecordFundCreated("contribution")
				metrics.RecordContribution()
			})
			s.Log.WithFields(logrus.Fields{
				"fund_id": fund.ID,
				"cycle":   fund.Cycle,
				"value":   value.String(),
			}).Warn("[FUND] no active fund found, created one seeded with the contribution")
			return fund, nil
		}

		// A concurrent caller created it first; contribute to theirs.
		active, err = s.FindActiveFund(ctx)
		if err != nil {
			return nil, err
		}
		if active == nil {
			return nil, errors.New("active fund slot is taken but no undistributed fund was found")
		}
	}

	return s.increment(ctx, active.ID, value)
}

// claimActiveSlot inserts a fund holding the active slot. created is false
// when the slot was already taken; the insert is then a no-op.
func (s *FundLedger) claimActiveSlot(ctx context.Context, cycle int, value decimal.Decimal) (*models.Fund, bool, error) {
	if cycle < 1 {
		cycle = 1
	}
	now := s.now()
	slot := models.ActiveFundSlot
	fund := &models.Fund{
		Cycle:       cycle,
		TotalValue:  value,
		StartDate:   now,
		EndDate:     now,
		Distributed: false,
		ActiveSlot:  &slot,
	}

	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "active_slot"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: models.OpenSlotPredicate}}},
			DoNothing:   true,
		}).
		Create(fund)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return fund, res.RowsAffected == 1, nil
}

// increment adds value in a single UPDATE so concurrent contributions never
// overwrite each other.
func (s *FundLedger) increment(ctx context.Context, fundID string, value decimal.Decimal) (*models.Fund, error) {
	db := s.DB.WithContext(ctx)
	res := db.Model(&models.Fund{}).
		Where("id = ?", fundID).
		Update("total_value", gorm.Expr("total_value + ?", value))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("fund %s disappeared before increment", fundID)
	}

	var fund models.Fund
	if err := db.First(&fund, "id = ?", fundID).Error; err != nil {
		return nil, err
	}

	s.record(metrics.RecordContribution)
	s.Log.WithFields(logrus.Fields{
		"fund_id": fund.ID,
		"value":   value.String(),
		"total":   fund.TotalValue.String(),
	}).Debug("[FUND] contribution added")
	return &fund, nil
}

// lastCycle returns the highest cycle ever opened, 0 when there are no funds.
func (s *FundLedger) lastCycle(ctx context.Context) (int, error) {
	var cycle int
	err := s.DB.WithContext(ctx).
		Model(&models.Fund{}).
		Select("COALESCE(MAX(cycle), 0)").
		Scan(&cycle).Error
	return cycle, err
}
