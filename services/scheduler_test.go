package services

import (
	"testing"

	"sementes-play/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartScheduler(t *testing.T) {
	db := newTestDB(t)
	log := utils.DiscardLogger()
	audit := &FundAuditJob{Ledger: newTestLedger(db), DB: db, Archive: utils.NoopArchive{}, AdminRole: "admin", Log: log}
	ranking, _ := newTestRanking(db)

	sched, err := StartScheduler(Schedules{FundIntegrity: "0 * * * *", Levels: "0 3 * * *"}, audit, ranking, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Shutdown() })

	names := []string{}
	for _, j := range sched.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"fund-integrity", "creator-levels"}, names)
}

func TestStartScheduler_RejectsBadExpression(t *testing.T) {
	db := newTestDB(t)
	log := utils.DiscardLogger()
	audit := &FundAuditJob{Ledger: newTestLedger(db), DB: db, Log: log}
	ranking, _ := newTestRanking(db)

	_, err := StartScheduler(Schedules{FundIntegrity: "every hour", Levels: "0 3 * * *"}, audit, ranking, log)
	assert.Error(t, err)
}
