package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"brokerdesk/models"
)

// DateLayout is the wire format for due and payment dates.
const DateLayout = "2006-01-02"

// Fixed message catalog: every field+rule pair maps to one of these.
const (
	msgRequired           = "is required"
	msgInvalidType        = "must be receivable or payable"
	msgDescriptionLength  = "must be between 3 and 255 characters"
	msgAmountPositive     = "must be greater than zero"
	msgAmountScale        = "must have at most 2 decimal places"
	msgInvalidDate        = "must be a valid date in YYYY-MM-DD format"
	msgInvalidStatus      = "must be pending, paid or cancelled"
	msgInvalidCategory    = "must be one of rent, sale, commission, maintenance, tax, other"
	msgNotExists          = "references a record that does not exist"
	msgOnlyWhenPaid       = "can only be set when status is paid"
	msgRequiredWhenPaid   = "is required when status is paid"
	msgCategoryRequiredFm = "is required for %s transactions"
)

// TransactionInput is the payload of a create or update request. Dates
// travel as strings so a malformed date becomes a field error instead of a
// bind failure.
type TransactionInput struct {
	Type          string           `json:"type"`
	Description   string           `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	DueDate       string           `json:"due_date"`
	PaymentDate   string           `json:"payment_date"`
	Status        string           `json:"status"`
	Category      string           `json:"category"`
	PersonID      *uint            `json:"person_id"`
	ContractID    *uint            `json:"contract_id"`
	BankAccountID *uint            `json:"bank_account_id"`
	PaymentTypeID *uint            `json:"payment_type_id"`
	PropertyID    *uint            `json:"property_id"`
	Notes         string           `json:"notes"`
}

// ValidationErrors maps field names to every reason the field failed.
// Rules never fail fast; the caller always sees the complete map.
type ValidationErrors map[string][]string

// Add appends a message to the field's list.
func (e ValidationErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// ReferenceChecker answers existence checks against the collaborator
// records a transaction may point at. Implementations must exclude
// soft-deleted rows unless includeDeleted is set.
type ReferenceChecker interface {
	PersonExists(id uint, includeDeleted bool) bool
	ContractExists(id uint, includeDeleted bool) bool
	PropertyExists(id uint, includeDeleted bool) bool
	BankAccountExists(id uint, includeDeleted bool) bool
	PaymentTypeExists(id uint, includeDeleted bool) bool
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// ValidateTransaction runs the base field rules, escalates the category's
// conditional fields to required, and re-checks them in the same pass so
// every missing field is reported together. On success it returns the
// entity ready to persist; it never touches the database beyond the
// existence checks.
func ValidateTransaction(in TransactionInput, refs ReferenceChecker) (*models.Transaction, ValidationErrors) {
	errs := ValidationErrors{}

	if in.Status == "" {
		in.Status = models.StatusPending
	}

	if in.Type == "" {
		errs.Add("type", msgRequired)
	} else if !contains(models.TransactionTypes, in.Type) {
		errs.Add("type", msgInvalidType)
	}

	if in.Description == "" {
		errs.Add("description", msgRequired)
	} else if n := len([]rune(in.Description)); n < 3 || n > 255 {
		errs.Add("description", msgDescriptionLength)
	}

	if in.Amount == nil {
		errs.Add("amount", msgRequired)
	} else {
		if !in.Amount.IsPositive() {
			errs.Add("amount", msgAmountPositive)
		}
		if in.Amount.Exponent() < -2 {
			errs.Add("amount", msgAmountScale)
		}
	}

	var dueDate time.Time
	if in.DueDate == "" {
		errs.Add("due_date", msgRequired)
	} else if t, err := time.Parse(DateLayout, in.DueDate); err != nil {
		errs.Add("due_date", msgInvalidDate)
	} else {
		dueDate = t
	}

	if !contains(models.TransactionStatuses, in.Status) {
		errs.Add("status", msgInvalidStatus)
	}

	var paymentDate *time.Time
	if in.PaymentDate != "" {
		if t, err := time.Parse(DateLayout, in.PaymentDate); err != nil {
			errs.Add("payment_date", msgInvalidDate)
		} else {
			paymentDate = &t
		}
	}

	// payment_date is set exactly when the entry is paid; payment_type only
	// ever accompanies a payment
	if in.Status == models.StatusPaid && in.PaymentDate == "" {
		errs.Add("payment_date", msgRequiredWhenPaid)
	}
	if in.Status != models.StatusPaid && in.PaymentDate != "" {
		errs.Add("payment_date", msgOnlyWhenPaid)
	}
	if in.Status != models.StatusPaid && in.PaymentTypeID != nil {
		errs.Add("payment_type_id", msgOnlyWhenPaid)
	}

	validCategory := false
	if in.Category == "" {
		errs.Add("category", msgRequired)
	} else if !contains(models.TransactionCategories, in.Category) {
		errs.Add("category", msgInvalidCategory)
	} else {
		validCategory = true
	}

	required := map[string]bool{}
	if validCategory {
		for _, f := range RequiredFieldsFor(in.Category) {
			required[f] = true
		}
	}

	checkRef := func(field string, id *uint, exists func(uint, bool) bool) {
		if id == nil {
			if required[field] {
				errs.Add(field, fmt.Sprintf(msgCategoryRequiredFm, in.Category))
			}
			return
		}
		if !exists(*id, false) {
			errs.Add(field, msgNotExists)
		}
	}
	checkRef("person_id", in.PersonID, refs.PersonExists)
	checkRef("contract_id", in.ContractID, refs.ContractExists)
	checkRef("property_id", in.PropertyID, refs.PropertyExists)
	checkRef("bank_account_id", in.BankAccountID, refs.BankAccountExists)
	checkRef("payment_type_id", in.PaymentTypeID, refs.PaymentTypeExists)

	if len(errs) > 0 {
		return nil, errs
	}

	return &models.Transaction{
		Type:          in.Type,
		Description:   in.Description,
		Amount:        in.Amount.Round(2),
		DueDate:       dueDate,
		PaymentDate:   paymentDate,
		Status:        in.Status,
		Category:      in.Category,
		PersonID:      in.PersonID,
		ContractID:    in.ContractID,
		BankAccountID: in.BankAccountID,
		PaymentTypeID: in.PaymentTypeID,
		PropertyID:    in.PropertyID,
		Notes:         in.Notes,
	}, nil
}
