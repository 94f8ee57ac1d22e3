package services

import (
	"context"
	"testing"
	"time"

	"sementes-play/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegrity_ToleranceBoundary(t *testing.T) {
	cases := []struct {
		name    string
		fund    string
		healthy bool
	}{
		{name: "half_cent_off", fund: "25.005", healthy: true},
		{name: "two_cents_off", fund: "25.02", healthy: false},
		{name: "exact", fund: "25", healthy: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			ledger := newTestLedger(db)
			ctx := context.Background()

			seedRepasse(t, db, "100", models.RepasseStatusPaid, testNow.Add(-time.Hour))
			_, err := ledger.CreateActiveFund(ctx, 1, dec(tc.fund))
			require.NoError(t, err)

			report, err := ledger.CheckIntegrity(ctx)
			require.NoError(t, err)
			requireDecimal(t, "25", report.ExpectedFundValue)
			assert.Equal(t, tc.healthy, report.Healthy)
		})
	}
}

func TestCheckIntegrity_OnlyTodaysPaidRepasses(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	ctx := context.Background()

	seedRepasse(t, db, "100", models.RepasseStatusPaid, testNow.Add(-time.Hour))
	seedRepasse(t, db, "40", models.RepasseStatusPaid, testNow.Add(2*time.Hour))
	seedRepasse(t, db, "1000", models.RepasseStatusPaid, testNow.AddDate(0, 0, -1))
	seedRepasse(t, db, "1000", models.RepasseStatusPending, testNow)
	seedRepasse(t, db, "1000", models.RepasseStatusRejected, testNow)

	report, err := ledger.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.RepassesToday)
	requireDecimal(t, "35", report.ExpectedFundValue)
	requireDecimal(t, "0", report.ActualFundValue)
	requireDecimal(t, "35", report.Difference)
	assert.False(t, report.Healthy)
	assert.EqualValues(t, 0, report.ActiveFundCount)
	assert.NotNil(t, report.Problems)
	assert.Empty(t, report.Problems)
}

func TestCheckIntegrity_FirstContributionScenario(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	ctx := context.Background()

	seedRepasse(t, db, "100.00", models.RepasseStatusPaid, testNow)

	fund, err := ledger.AddToActiveFund(ctx, dec("25.00"), 1)
	require.NoError(t, err)
	requireDecimal(t, "25", fund.TotalValue)

	report, err := ledger.CheckIntegrity(ctx)
	require.NoError(t, err)
	requireDecimal(t, "25", report.ExpectedFundValue)
	requireDecimal(t, "25", report.ActualFundValue)
	requireDecimal(t, "0", report.Difference)
	assert.True(t, report.Healthy)
}

// Several undistributed funds are compared against expectations as one sum.
func TestCheckIntegrity_SumsEveryUndistributedFund(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	ctx := context.Background()

	seedRepasse(t, db, "100", models.RepasseStatusPaid, testNow)
	seedLegacyFund(t, db, 1, "10", testNow.AddDate(0, 0, -3))
	seedLegacyFund(t, db, 2, "15", testNow.AddDate(0, 0, -1))

	report, err := ledger.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.ActiveFundCount)
	assert.Equal(t, []string{ProblemMultipleActiveFunds}, report.Problems)
	requireDecimal(t, "25", report.ActualFundValue)
	assert.True(t, report.Healthy)
}

func TestInspect_NeverWrites(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)

	audit, err := ledger.Inspect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, audit.ActiveFund)
	assert.False(t, audit.Repaired)
	require.NotEmpty(t, audit.Recommendations)
	assert.Contains(t, audit.Recommendations[0], "CRÍTICO")

	var count int64
	require.NoError(t, db.Model(&models.Fund{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepair_CreatesNextCycleOnlyWhenMissing(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	ctx := context.Background()

	paidOut := &models.Fund{Cycle: 4, TotalValue: dec("80"), StartDate: testNow.AddDate(0, -1, 0), EndDate: testNow, Distributed: true}
	require.NoError(t, db.Create(paidOut).Error)

	audit, err := ledger.Repair(ctx)
	require.NoError(t, err)
	assert.True(t, audit.Repaired)
	require.NotNil(t, audit.CreatedFund)
	assert.Equal(t, 5, audit.CreatedFund.Cycle)
	require.NotNil(t, audit.ActiveFund)
	assert.Equal(t, audit.CreatedFund.ID, audit.ActiveFund.ID)
	assert.EqualValues(t, 1, audit.Integrity.ActiveFundCount)

	again, err := ledger.Repair(ctx)
	require.NoError(t, err)
	assert.False(t, again.Repaired)
	assert.Nil(t, again.CreatedFund)
	assert.Equal(t, audit.ActiveFund.ID, again.ActiveFund.ID)

	var undistributed int64
	require.NoError(t, db.Model(&models.Fund{}).Where("distributed = ?", false).Count(&undistributed).Error)
	assert.EqualValues(t, 1, undistributed)
}

func TestRecommendations(t *testing.T) {
	healthy := &IntegrityReport{ActiveFundCount: 1, Difference: dec("0"), Problems: []string{}}
	assert.Equal(t, []string{"Fundo íntegro. Nenhuma ação necessária."}, Recommendations(healthy, &models.Fund{}))

	broken := &IntegrityReport{
		ActiveFundCount:   2,
		ExpectedFundValue: dec("25"),
		ActualFundValue:   dec("20"),
		Difference:        dec("5"),
		Problems:          []string{ProblemMultipleActiveFunds},
	}
	recs := Recommendations(broken, &models.Fund{})
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "AVISO: 2 fundos ativos")
	assert.Contains(t, recs[1], "INCONSISTÊNCIA: diferença de 5.00")
}
