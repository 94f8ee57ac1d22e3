// services/fund_audit_job.go
package services

import (
	"context"
	"fmt"
	"strings"

	"sementes-play/events"
	"sementes-play/models"
	"sementes-play/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// FundAuditReportKind names archived cron audit reports.
const FundAuditReportKind = "Verificação de Integridade do Fundo"

var brl = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders an amount as Brazilian reais, e.g. "R$ 1.234,50". The
// integer part must fit an int64, which decimal(18,4) columns guarantee.
func FormatBRL(v decimal.Decimal) string {
	v = v.Round(2)
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}
	fixed := v.StringFixed(2)
	cents := fixed[strings.IndexByte(fixed, '.')+1:]
	return sign + brl.Sprintf("R$ %d", v.IntPart()) + "," + cents
}

// FundAuditJob is the scheduled/cron audit: repair the fund, tell the admins
// what is wrong, publish an alert and archive the report.
type FundAuditJob struct {
	Ledger    *FundLedger
	DB        *gorm.DB
	Events    events.Publisher
	Archive   utils.ReportArchive
	AdminRole string
	Log       logrus.FieldLogger
}

// FundAuditResult is the audit plus what the job did with it.
type FundAuditResult struct {
	*FundAudit
	NotificationsCreated int    `json:"notifications_created"`
	ArchiveKey           string `json:"archive_key,omitempty"`
}

func (j *FundAuditJob) Run(ctx context.Context) (*FundAuditResult, error) {
	audit, err := j.Ledger.Repair(ctx)
	if err != nil {
		return nil, err
	}
	result := &FundAuditResult{FundAudit: audit}
	report := audit.Integrity

	alerts := alertNotifications(report)
	if len(alerts) > 0 {
		n, err := j.notifyAdmins(ctx, alerts)
		if err != nil {
			return nil, err
		}
		result.NotificationsCreated = n
		j.publishAlert(ctx, report)
	}

	if j.Archive != nil {
		key, err := j.Archive.Put(ctx, FundAuditReportKind, report.CheckedAt, result)
		if err != nil {
			j.Log.WithError(err).Warn("[CRON] failed to archive fund audit report")
		}
		result.ArchiveKey = key
	}

	j.Log.WithFields(logrus.Fields{
		"healthy":       report.Healthy,
		"active_funds":  report.ActiveFundCount,
		"difference":    report.Difference.String(),
		"repaired":      audit.Repaired,
		"notifications": result.NotificationsCreated,
	}).Info("[CRON] fund audit finished")
	return result, nil
}

// RunScheduled adapts Run to the scheduler's task signature.
func (j *FundAuditJob) RunScheduled() {
	if _, err := j.Run(context.Background()); err != nil {
		j.Log.WithError(err).Error("[CRON] fund audit failed")
	}
}

func alertNotifications(report *IntegrityReport) []models.Notification {
	var out []models.Notification
	if report.ActiveFundCount > 1 {
		out = append(out, models.Notification{
			Title:   "Múltiplos fundos ativos",
			Message: fmt.Sprintf("Foram encontrados %d fundos ativos. Apenas um fundo deveria estar ativo.", report.ActiveFundCount),
			Type:    models.NotificationTypeAlert,
		})
	}
	if report.Difference.GreaterThan(IntegrityTolerance) {
		out = append(out, models.Notification{
			Title: "Inconsistência no fundo de sementes",
			Message: fmt.Sprintf("Valor esperado %s, valor no fundo %s (diferença de %s).",
				FormatBRL(report.ExpectedFundValue), FormatBRL(report.ActualFundValue), FormatBRL(report.Difference)),
			Type: models.NotificationTypeAlert,
		})
	}
	return out
}

func (j *FundAuditJob) notifyAdmins(ctx context.Context, alerts []models.Notification) (int, error) {
	var adminIDs []string
	if err := j.DB.WithContext(ctx).Model(&models.User{}).
		Where("level = ?", j.AdminRole).
		Pluck("id", &adminIDs).Error; err != nil {
		return 0, fmt.Errorf("load admins: %w", err)
	}
	if len(adminIDs) == 0 {
		j.Log.Warn("[CRON] fund problems found but there are no admins to notify")
		return 0, nil
	}

	batch := make([]models.Notification, 0, len(adminIDs)*len(alerts))
	for _, id := range adminIDs {
		for _, a := range alerts {
			a.UserID = id
			batch = append(batch, a)
		}
	}
	if err := j.DB.WithContext(ctx).Create(&batch).Error; err != nil {
		return 0, fmt.Errorf("create admin notifications: %w", err)
	}
	return len(batch), nil
}

func (j *FundAuditJob) publishAlert(ctx context.Context, report *IntegrityReport) {
	if j.Events == nil {
		return
	}
	err := j.Events.Publish(ctx, events.RoutingIntegrityAlert, events.IntegrityAlert{
		ActiveFundCount:   report.ActiveFundCount,
		ExpectedFundValue: report.ExpectedFundValue.StringFixed(2),
		ActualFundValue:   report.ActualFundValue.StringFixed(2),
		Difference:        report.Difference.StringFixed(2),
		Problems:          report.Problems,
		CheckedAt:         report.CheckedAt,
	})
	if err != nil {
		j.Log.WithError(err).Warn("[CRON] failed to publish integrity alert")
	}
}
