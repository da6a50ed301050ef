package finance

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"brokerdesk/models"
)

// Derived due filters. Each is computed from the caller-provided Now so
// "today" is testable.
const (
	DueOverdue   = "overdue"
	DueThisMonth = "this_month"
	DueNextMonth = "next_month"
)

// Filter describes a composable, AND-combined selection over the
// transaction collection. Zero values mean "no constraint".
type Filter struct {
	Type       string
	Status     string
	Category   string
	PersonID   *uint
	ContractID *uint
	PropertyID *uint

	// Inclusive due date range.
	DueFrom *time.Time
	DueTo   *time.Time

	// Case-insensitive substring over description or related person name.
	Search string

	// Due selects one of the derived windows above; DueInDays selects
	// pending entries due within [today, today+n].
	Due       string
	DueInDays *int
	Now       time.Time

	// IncludeDeleted lifts the default soft-delete scoping. Explicit on
	// purpose: lookups that need deleted rows must say so.
	IncludeDeleted bool
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthRange returns the first day of t's month and the first day of the
// next month (half-open range).
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// NextMonthRange returns the half-open window of the month after t's.
// Anchored on day 1 before stepping: adding a month to Jan 31 directly
// would normalize to March 3.
func NextMonthRange(t time.Time) (time.Time, time.Time) {
	_, start := MonthRange(t)
	return start, start.AddDate(0, 1, 0)
}

// DueInDaysRange returns the half-open window covering [today, today+n]
// inclusive.
func DueInDaysRange(now time.Time, n int) (time.Time, time.Time) {
	start := StartOfDay(now)
	return start, start.AddDate(0, 0, n+1)
}

// Scope turns the filter into a GORM scope. Every predicate is AND-ed.
func (f Filter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.IncludeDeleted {
			db = db.Unscoped()
		}
		if f.Type != "" {
			db = db.Where("transactions.type = ?", f.Type)
		}
		if f.Status != "" {
			db = db.Where("transactions.status = ?", f.Status)
		}
		if f.Category != "" {
			db = db.Where("transactions.category = ?", f.Category)
		}
		if f.PersonID != nil {
			db = db.Where("transactions.person_id = ?", *f.PersonID)
		}
		if f.ContractID != nil {
			db = db.Where("transactions.contract_id = ?", *f.ContractID)
		}
		if f.PropertyID != nil {
			db = db.Where("transactions.property_id = ?", *f.PropertyID)
		}
		if f.DueFrom != nil {
			db = db.Where("transactions.due_date >= ?", StartOfDay(*f.DueFrom))
		}
		if f.DueTo != nil {
			db = db.Where("transactions.due_date < ?", StartOfDay(*f.DueTo).AddDate(0, 0, 1))
		}
		if f.Search != "" {
			pattern := "%" + strings.ToLower(f.Search) + "%"
			db = db.Joins("LEFT JOIN people ON people.id = transactions.person_id AND people.deleted_at IS NULL").
				Where("LOWER(transactions.description) LIKE ? OR LOWER(people.name) LIKE ?", pattern, pattern)
		}

		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		switch f.Due {
		case DueOverdue:
			db = db.Where("transactions.status = ? AND transactions.due_date < ?",
				models.StatusPending, StartOfDay(now))
		case DueThisMonth:
			start, end := MonthRange(now)
			db = db.Where("transactions.due_date >= ? AND transactions.due_date < ?", start, end)
		case DueNextMonth:
			start, end := NextMonthRange(now)
			db = db.Where("transactions.due_date >= ? AND transactions.due_date < ?", start, end)
		}
		if f.DueInDays != nil {
			start, end := DueInDaysRange(now, *f.DueInDays)
			db = db.Where("transactions.status = ? AND transactions.due_date >= ? AND transactions.due_date < ?",
				models.StatusPending, start, end)
		}
		return db
	}
}
