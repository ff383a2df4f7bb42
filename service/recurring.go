package service

import (
	"fmt"
	"strings"
	"time"

	"kontor/models"

	"gorm.io/gorm"
)

// RecurringService backfills historical occurrences of recurring expense
// templates. One backfill run is one transaction: either every occurrence (and
// any depreciation schedule its settings require) is persisted, or none.
//
// Callers must serialize regeneration per template; the delete-then-reinsert
// cycle is not arbitrated here.
type RecurringService struct {
	db *gorm.DB
}

// NewRecurringService creates a recurring expense service.
func NewRecurringService(db *gorm.DB) *RecurringService {
	return &RecurringService{db: db}
}

// BuildOccurrences computes, without persisting, every occurrence of the
// template from its anchor date up to (but excluding) today.
//
// The cursor anchors at the template's own expense date. When that anchor
// predates the recurrence start date, it shifts forward into the start month
// keeping the anchor's day-of-month, so the series stays phase-aligned with
// the original expense date. The period sharing (year, month) with the
// template's own expense date is never materialized: that period is
// represented by the template itself.
func BuildOccurrences(template *models.Expense, today time.Time) ([]models.Expense, error) {
	if !ValidFrequency(template.Frequency) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, template.Frequency)
	}

	anchor := DateOnly(template.ExpenseDate)
	start := anchor
	if template.RecurrenceStartDate != nil {
		start = DateOnly(*template.RecurrenceStartDate)
	}

	cursor := anchor
	if cursor.Before(start) {
		cursor = time.Date(start.Year(), start.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	}

	var end *time.Time
	if template.RecurrenceEndDate != nil {
		e := DateOnly(*template.RecurrenceEndDate)
		end = &e
	}
	today = DateOnly(today)

	var occurrences []models.Expense
	for cursor.Before(today) {
		if end != nil && cursor.After(*end) {
			break
		}
		if !SameYearMonth(cursor, anchor) && !cursor.Before(start) {
			occurrences = append(occurrences, newOccurrence(template, cursor))
		}
		cursor, _ = AddPeriod(cursor, template.Frequency)
	}
	return occurrences, nil
}

// newOccurrence copies the template's financial fields onto a generated child
// expense dated at the cursor.
func newOccurrence(template *models.Expense, date time.Time) models.Expense {
	parentID := template.ID
	return models.Expense{
		UserID:               template.UserID,
		Amount:               template.Amount,
		NetAmount:            template.NetAmount,
		TaxRate:              template.TaxRate,
		TaxAmount:            template.TaxAmount,
		Currency:             template.Currency,
		Category:             template.Category,
		Description:          taggedDescription(template.Description),
		Notes:                template.Notes,
		Tags:                 template.Tags,
		ExpenseDate:          date,
		Status:               models.StatusApproved,
		Billable:             template.Billable,
		Reimbursable:         template.Reimbursable,
		ParentID:             &parentID,
		DepreciationSettings: template.DepreciationSettings,
	}
}

func taggedDescription(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return "[auto-generated]"
	}
	return description + " [auto-generated]"
}

// Backfill generates and persists all historical occurrences of the template
// between its start date and today. The whole run is one transaction.
func (s *RecurringService) Backfill(template *models.Expense) ([]models.Expense, error) {
	return s.run(template, false)
}

// Regenerate deletes every generated occurrence of the template (including
// their depreciation schedules) and backfills from scratch. Called whenever
// frequency, start or end date change; incremental patching is deliberately
// avoided so occurrences can never drift from their template.
func (s *RecurringService) Regenerate(template *models.Expense) ([]models.Expense, error) {
	return s.run(template, true)
}

func (s *RecurringService) run(template *models.Expense, wipe bool) ([]models.Expense, error) {
	now := time.Now()

	// Invalid settings abort before anything touches the database.
	occurrences, err := BuildOccurrences(template, now)
	if err != nil {
		return nil, err
	}
	next, err := s.nextOccurrenceFor(template, now)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if wipe {
			if err := deleteChildren(tx, template); err != nil {
				return err
			}
		}

		if len(occurrences) > 0 {
			if err := tx.Create(&occurrences).Error; err != nil {
				return err
			}
		}

		// Capitalized templates need a synchronized schedule per child,
		// anchored at the template's global depreciation start date.
		if template.DepreciationType == models.DepreciationPartial {
			for i := range occurrences {
				if err := replaceScheduleTx(tx, &occurrences[i]); err != nil {
					return err
				}
			}
		}

		return tx.Model(&models.Expense{}).
			Where("id = ? AND user_id = ?", template.ID, template.UserID).
			Update("next_occurrence", next).Error
	})
	if err != nil {
		return nil, err
	}

	template.NextOccurrence = next
	return occurrences, nil
}

// nextOccurrenceFor computes the template's next future occurrence date.
func (s *RecurringService) nextOccurrenceFor(template *models.Expense, now time.Time) (*time.Time, error) {
	start := DateOnly(template.ExpenseDate)
	if template.RecurrenceStartDate != nil {
		start = DateOnly(*template.RecurrenceStartDate)
	}
	return NextOccurrence(start, template.Frequency, template.RecurrenceEndDate, now)
}

// deleteChildren removes all generated occurrences of the template and their
// depreciation schedule entries.
func deleteChildren(tx *gorm.DB, template *models.Expense) error {
	var childIDs []uint
	if err := tx.Model(&models.Expense{}).
		Where("parent_id = ?", template.ID).
		Pluck("id", &childIDs).Error; err != nil {
		return err
	}
	if len(childIDs) == 0 {
		return nil
	}
	if err := tx.Where("expense_id IN ?", childIDs).
		Delete(&models.DepreciationScheduleEntry{}).Error; err != nil {
		return err
	}
	return tx.Where("parent_id = ?", template.ID).Delete(&models.Expense{}).Error
}
