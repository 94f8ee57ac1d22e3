// services/ranking.go
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sementes-play/events"
	"sementes-play/metrics"
	"sementes-play/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Score weights per signal.
const (
	MissionWeight     int64 = 10
	AchievementWeight int64 = 20
)

// TierBand gives Level to every position up to and including UpTo.
type TierBand struct {
	UpTo  int
	Level string
}

// TierScale maps a 1-indexed rank position to a level. Bands are ordered by
// UpTo; positions past the last band get Fallback.
type TierScale struct {
	Bands    []TierBand
	Fallback string
}

var DefaultTierScale = TierScale{
	Bands: []TierBand{
		{UpTo: 50, Level: models.LevelSupreme},
		{UpTo: 100, Level: models.LevelPartner},
		{UpTo: 150, Level: models.LevelCommon},
	},
	Fallback: models.LevelBeginner,
}

func (t TierScale) LevelFor(position int) string {
	for _, b := range t.Bands {
		if position <= b.UpTo {
			return b.Level
		}
	}
	return t.Fallback
}

// Levels is the set of labels the ranking pass may read and write.
func (t TierScale) Levels() []string {
	seen := make(map[string]bool, len(t.Bands)+1)
	var out []string
	for _, l := range append(bandLevels(t.Bands), t.Fallback) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func bandLevels(bands []TierBand) []string {
	out := make([]string, 0, len(bands))
	for _, b := range bands {
		out = append(out, b.Level)
	}
	return out
}

// creatorScore is one eligible creator with the raw signals of its score.
type creatorScore struct {
	CreatorID            string
	UserID               string
	Name                 string
	Level                string
	StoredScore          int64
	DonationTotal        int64
	MissionsCompleted    int64
	AchievementsUnlocked int64
}

func (c creatorScore) Score() int64 {
	return c.DonationTotal +
		MissionWeight*c.MissionsCompleted +
		AchievementWeight*c.AchievementsUnlocked +
		c.StoredScore
}

// LevelChange records one level write made by a ranking pass.
type LevelChange struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	OldLevel string `json:"old_level"`
	NewLevel string `json:"new_level"`
	Score    int64  `json:"score"`
}

type RecomputeResult struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	Changes       []LevelChange `json:"changes"`
	TotalCreators int           `json:"total_creators"`
}

// RankingService reassigns creator levels from their score-ordered position.
// Ranking is relative, so every pass rescores the whole eligible population.
type RankingService struct {
	DB     *gorm.DB
	Scale  TierScale
	Events events.Publisher
	Log    logrus.FieldLogger
	Now    func() time.Time
}

func NewRankingService(db *gorm.DB, publisher events.Publisher, log logrus.FieldLogger) *RankingService {
	return &RankingService{
		DB:     db,
		Scale:  DefaultTierScale,
		Events: publisher,
		Log:    log,
		Now:    time.Now,
	}
}

func (s *RankingService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

const eligibleCreatorsQuery = `
SELECT
	c.id AS creator_id,
	u.id AS user_id,
	u.name AS name,
	u.level AS level,
	u.score AS stored_score,
	(SELECT CAST(COALESCE(SUM(d.quantity), 0) AS BIGINT) FROM donations d WHERE d.creator_id = c.id) AS donation_total,
	(SELECT COUNT(*) FROM user_missions um WHERE um.user_id = u.id AND um.completed = ?) AS missions_completed,
	(SELECT COUNT(*) FROM user_achievements ua WHERE ua.user_id = u.id AND ua.unlocked = ?) AS achievements_unlocked
FROM creators c
JOIN users u ON u.id = c.user_id
WHERE u.level IN ?
	AND u.deleted_at IS NULL
	AND c.deleted_at IS NULL
	AND EXISTS (SELECT 1 FROM contents ct WHERE ct.creator_id = c.id)
ORDER BY c.created_at ASC, c.id ASC`

// ranked loads the eligible population (a creator level and at least one
// content item) sorted by score, highest first. Equal scores keep load order.
func (s *RankingService) ranked(ctx context.Context) ([]creatorScore, error) {
	var rows []creatorScore
	if err := s.DB.WithContext(ctx).
		Raw(eligibleCreatorsQuery, true, true, s.Scale.Levels()).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load eligible creators: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score() > rows[j].Score()
	})
	return rows, nil
}

// RecomputeAllLevels rescores every eligible creator and writes the levels
// that changed. Failures are reported in the result, never returned.
func (s *RankingService) RecomputeAllLevels(ctx context.Context) RecomputeResult {
	changes, total, err := s.recomputeAll(ctx)
	if err != nil {
		metrics.RecordRankingPass(false)
		s.Log.WithError(err).Error("[RANKING] level recomputation failed")
		return RecomputeResult{
			Success:       false,
			Message:       fmt.Sprintf("Erro ao atualizar níveis: %v", err),
			Changes:       []LevelChange{},
			TotalCreators: 0,
		}
	}

	metrics.RecordRankingPass(true)
	s.Log.WithFields(logrus.Fields{"creators": total, "changes": len(changes)}).Info("[RANKING] levels recomputed")
	return RecomputeResult{
		Success:       true,
		Message:       fmt.Sprintf("Níveis atualizados: %d alterações em %d criadores", len(changes), total),
		Changes:       changes,
		TotalCreators: total,
	}
}

func (s *RankingService) recomputeAll(ctx context.Context) ([]LevelChange, int, error) {
	rows, err := s.ranked(ctx)
	if err != nil {
		return nil, 0, err
	}

	changes := []LevelChange{}
	for i, c := range rows {
		position := i + 1
		newLevel := s.Scale.LevelFor(position)
		if newLevel == c.Level {
			continue
		}
		changes = append(changes, LevelChange{
			ID:       c.CreatorID,
			UserID:   c.UserID,
			Name:     c.Name,
			Position: position,
			OldLevel: c.Level,
			NewLevel: newLevel,
			Score:    c.Score(),
		})
	}

	if len(changes) > 0 {
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, ch := range changes {
				if err := setLevel(tx, ch.UserID, ch.NewLevel); err != nil {
					return fmt.Errorf("update level of creator %s: %w", ch.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, 0, err
		}
	}

	for _, ch := range changes {
		s.levelChanged(ctx, ch)
	}
	return changes, len(rows), nil
}

// RecomputeLevelForCreator places one creator within the whole eligible
// population and writes its level if it changed. It reports whether a write
// happened; unknown or ineligible creators yield false.
func (s *RankingService) RecomputeLevelForCreator(ctx context.Context, creatorID string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Creator{}).Where("id = ?", creatorID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}

	rows, err := s.ranked(ctx)
	if err != nil {
		return false, err
	}

	for i, c := range rows {
		if c.CreatorID != creatorID {
			continue
		}
		position := i + 1
		newLevel := s.Scale.LevelFor(position)
		if newLevel == c.Level {
			return false, nil
		}
		if err := setLevel(s.DB.WithContext(ctx), c.UserID, newLevel); err != nil {
			return false, err
		}
		s.levelChanged(ctx, LevelChange{
			ID:       c.CreatorID,
			UserID:   c.UserID,
			Name:     c.Name,
			Position: position,
			OldLevel: c.Level,
			NewLevel: newLevel,
			Score:    c.Score(),
		})
		return true, nil
	}

	// Exists but not eligible (no content, or a non-creator level).
	return false, nil
}

func setLevel(db *gorm.DB, userID, level string) error {
	return db.Model(&models.User{}).Where("id = ?", userID).Update("level", level).Error
}

func (s *RankingService) levelChanged(ctx context.Context, ch LevelChange) {
	metrics.RecordLevelChange(ch.NewLevel)
	s.Log.WithFields(logrus.Fields{
		"creator_id": ch.ID,
		"position":   ch.Position,
		"old_level":  ch.OldLevel,
		"new_level":  ch.NewLevel,
		"score":      ch.Score,
	}).Info("[RANKING] creator level changed")

	if s.Events == nil {
		return
	}
	err := s.Events.Publish(ctx, events.RoutingLevelChanged, events.LevelChanged{
		CreatorID: ch.ID,
		UserID:    ch.UserID,
		Position:  ch.Position,
		OldLevel:  ch.OldLevel,
		NewLevel:  ch.NewLevel,
		Score:     ch.Score,
		ChangedAt: s.now(),
	})
	if err != nil {
		s.Log.WithError(err).WithField("creator_id", ch.ID).Warn("[RANKING] failed to publish level change")
	}
}
