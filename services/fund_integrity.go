// services/fund_integrity.go
package services

import (
	"context"
	"fmt"
	"time"

	"sementes-play/metrics"
	"sementes-play/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IntegrityReport compares what today's paid repasses should have put in the
// fund with what the undistributed funds actually hold.
type IntegrityReport struct {
	ActiveFundCount   int64           `json:"active_fund_count"`
	RepassesToday     int64           `json:"repasses_today"`
	ExpectedFundValue decimal.Decimal `json:"expected_fund_value"`
	ActualFundValue   decimal.Decimal `json:"actual_fund_value"`
	Difference        decimal.Decimal `json:"difference"`
	Healthy           bool            `json:"healthy"`
	Problems          []string        `json:"problems"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// FundAudit is an integrity report plus the active fund and what an operator
// should do about it.
type FundAudit struct {
	Integrity       *IntegrityReport `json:"integrity"`
	ActiveFund      *models.Fund     `json:"active_fund"`
	Recommendations []string         `json:"recommendations"`
	Repaired        bool             `json:"repaired"`
	CreatedFund     *models.Fund     `json:"created_fund,omitempty"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CheckIntegrity audits the fund against today's paid repasses.
//
// The actual value sums every undistributed fund, not only the one
// FindActiveFund returns, so with several active funds the money comparison
// is over their aggregate.
func (s *FundLedger) CheckIntegrity(ctx context.Context) (*IntegrityReport, error) {
	db := s.DB.WithContext(ctx)
	now := s.now()
	dayStart := startOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var repasseValues []decimal.Decimal
	if err := db.Model(&models.PartnerRepasse{}).
		Where("status = ? AND repasse_date >= ? AND repasse_date < ?", models.RepasseStatusPaid, dayStart, dayEnd).
		Pluck("value", &repasseValues).Error; err != nil {
		return nil, fmt.Errorf("load today's repasses: %w", err)
	}

	var activeFunds []models.Fund
	if err := db.Where("distributed = ?", false).Find(&activeFunds).Error; err != nil {
		return nil, fmt.Errorf("load active funds: %w", err)
	}

	expected := decimal.Zero
	for _, v := range repasseValues {
		expected = expected.Add(v.Mul(ContributionShare))
	}
	actual := decimal.Zero
	for _, f := range activeFunds {
		actual = actual.Add(f.TotalValue)
	}
	diff := expected.Sub(actual).Abs()

	report := &IntegrityReport{
		ActiveFundCount:   int64(len(activeFunds)),
		RepassesToday:     int64(len(repasseValues)),
		ExpectedFundValue: expected,
		ActualFundValue:   actual,
		Difference:        diff,
		Healthy:           diff.LessThan(IntegrityTolerance),
		Problems:          []string{},
		CheckedAt:         now,
	}
	if report.ActiveFundCount > 1 {
		report.Problems = append(report.Problems, ProblemMultipleActiveFunds)
	}

	metrics.RecordIntegrityCheck(report.Healthy, report.ActiveFundCount)
	return report, nil
}

// Inspect runs the integrity check and looks up the active fund. It never writes.
func (s *FundLedger) Inspect(ctx context.Context) (*FundAudit, error) {
	report, err := s.CheckIntegrity(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.FindActiveFund(ctx)
	if err != nil {
		return nil, err
	}

	return &FundAudit{
		Integrity:       report,
		ActiveFund:      active,
		Recommendations: Recommendations(report, active),
	}, nil
}

// Repair inspects the fund and, when there is no active fund, opens one for
// the next cycle. Multiple funds and value mismatches are only reported.
func (s *FundLedger) Repair(ctx context.Context) (*FundAudit, error) {
	audit, err := s.Inspect(ctx)
	if err != nil {
		return nil, err
	}
	if audit.ActiveFund != nil {
		return audit, nil
	}

	last, err := s.lastCycle(ctx)
	if err != nil {
		return nil, err
	}
	fund, created, err := s.claimActiveSlot(ctx, last+1, decimal.Zero)
	if err != nil {
		return nil, err
	}
	if created {
		s.record(func() { metrics.RecordFundCreated("repair") })
		s.Log.WithFields(logrus.Fields{"fund_id": fund.ID, "cycle": fund.Cycle}).
			Warn("[FUND] no active fund found during audit, created an empty one")
	}

	repaired, err := s.Inspect(ctx)
	if err != nil {
		return nil, err
	}
	repaired.Repaired = created
	if created {
		repaired.CreatedFund = fund
	}
	return repaired, nil
}

// Recommendations turns an audit into operator-facing advice.
func Recommendations(report *IntegrityReport, active *models.Fund) []string {
	recs := []string{}
	if active == nil {
		recs = append(recs, "CRÍTICO: nenhum fundo ativo encontrado. Crie um fundo para receber as contribuições dos repasses.")
	}
	if report.ActiveFundCount > 1 {
		recs = append(recs, fmt.Sprintf("AVISO: %d fundos ativos encontrados. Consolide-os em um único fundo.", report.ActiveFundCount))
	}
	if report.Difference.GreaterThan(IntegrityTolerance) {
		recs = append(recs, fmt.Sprintf("INCONSISTÊNCIA: diferença de %s entre o valor esperado (%s) e o valor do fundo (%s).",
			report.Difference.StringFixed(2), report.ExpectedFundValue.StringFixed(2), report.ActualFundValue.StringFixed(2)))
	}
	if len(recs) == 0 {
		recs = append(recs, "Fundo íntegro. Nenhuma ação necessária.")
	}
	return recs
}
