package database

import (
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/feedback"
	"github.com/MarcoPoloResearchLab/feedbackwall/internal/profiles"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationBackfillProfileDisplayNames = "2025-05-12_backfill_profile_display_names"
	migrationNormalizeFeedbackSlugs      = "2025-06-03_normalize_feedback_slugs"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func registeredMigrations() []migrationDefinition {
	return []migrationDefinition{
		{name: migrationBackfillProfileDisplayNames, apply: backfillProfileDisplayNames},
		{name: migrationNormalizeFeedbackSlugs, apply: normalizeFeedbackSlugs},
	}
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	for _, migration := range registeredMigrations() {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.apply(tx); err != nil {
				return err
			}
			appliedAt := time.Now().UTC().Unix()
			return tx.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error
		}); err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

func backfillProfileDisplayNames(db *gorm.DB) error {
	return db.Model(&profiles.Profile{}).
		Where("TRIM(display_name) = ''").
		Update("display_name", profiles.DefaultDisplayName).Error
}

// normalizeFeedbackSlugs rewrites slugs stored before derivation was enforced. Rows whose
// normalized form collides with another page keep their original slug.
func normalizeFeedbackSlugs(db *gorm.DB) error {
	var pages []feedback.Page
	if err := db.Select("id", "slug").Find(&pages).Error; err != nil {
		return err
	}
	taken := make(map[string]struct{}, len(pages))
	for _, page := range pages {
		taken[page.Slug] = struct{}{}
	}
	for _, page := range pages {
		normalized := feedback.DeriveSlug(page.Slug)
		if normalized == page.Slug || strings.TrimSpace(normalized) == "" {
			continue
		}
		if _, exists := taken[normalized]; exists {
			continue
		}
		if err := db.Model(&feedback.Page{}).Where("id = ?", page.ID).Update("slug", normalized).Error; err != nil {
			return err
		}
		delete(taken, page.Slug)
		taken[normalized] = struct{}{}
	}
	return nil
}
