package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"brokerdesk/models"
	"brokerdesk/pkg/finance"
	"brokerdesk/pkg/storage"
)

var transactionPreloads = []string{"Person", "Contract", "Property", "BankAccount", "PaymentType"}

func withPreloads(q *gorm.DB) *gorm.DB {
	for _, p := range transactionPreloads {
		q = q.Preload(p)
	}
	return q
}

// filterFromQuery builds the composable transaction filter from query
// parameters. An explicit "now" (YYYY-MM-DD) anchors the derived due
// windows; it defaults to the server clock.
func filterFromQuery(c *gin.Context) finance.Filter {
	f := finance.Filter{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Due:      c.Query("due"),
	}
	parseUintParam := func(name string) *uint {
		v := c.Query(name)
		if v == "" {
			return nil
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 {
			return nil
		}
		u := uint(n)
		return &u
	}
	f.PersonID = parseUintParam("person_id")
	f.ContractID = parseUintParam("contract_id")
	f.PropertyID = parseUintParam("property_id")
	if v := c.Query("start_date"); v != "" {
		if t, err := time.Parse(finance.DateLayout, v); err == nil {
			f.DueFrom = &t
		}
	}
	if v := c.Query("end_date"); v != "" {
		if t, err := time.Parse(finance.DateLayout, v); err == nil {
			f.DueTo = &t
		}
	}
	if v := c.Query("due_in_days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.DueInDays = &n
		}
	}
	if v := c.Query("now"); v != "" {
		if t, err := time.Parse(finance.DateLayout, v); err == nil {
			f.Now = t
		}
	}
	return f
}

func parseIDParam(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return 0, false
	}
	return uint(n), true
}

func transactionBody(t *models.Transaction) gin.H {
	body := gin.H{"transaction": t}
	if t.HasReceipt() {
		body["receipt_url"] = receipts.URLFor(t.ReceiptPath)
	}
	return body
}

func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, finance.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
	case errors.Is(err, finance.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "transaction status does not allow this operation"})
	case errors.Is(err, storage.ErrInvalidFile):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"receipt": []string{err.Error()}}})
	case errors.Is(err, finance.ErrStorage):
		log.Error().Err(err).Msg("receipt storage failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "receipt storage failed"})
	default:
		log.Error().Err(err).Msg("unexpected database error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func listTransactionsHandler(c *gin.Context) {
	f := filterFromQuery(c)

	var total int64
	if err := db.Model(&models.Transaction{}).Scopes(f.Scope()).Count(&total).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	var items []models.Transaction
	q := withPreloads(db.Model(&models.Transaction{})).
		Scopes(f.Scope(), paginate(c), sortScope(c))
	if err := q.Find(&items).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginatedResponse(c, items, total))
}

func createTransactionHandler(c *gin.Context) {
	var in finance.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, verrs := finance.ValidateTransaction(in, finance.DBChecker{DB: db})
	if verrs != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verrs})
		return
	}
	if err := db.Create(t).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transactionBody(t))
}

func getTransactionHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var t models.Transaction
	if err := withPreloads(db).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondDomainError(c, finance.ErrNotFound)
		} else {
			respondDomainError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, transactionBody(&t))
}

// onlyNotesChanged reports whether the validated payload differs from the
// stored record in notes alone. Cancelled entries accept no other change.
func onlyNotesChanged(existing *models.Transaction, next *models.Transaction) bool {
	samePtr := func(a, b *uint) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	sameDate := func(a, b *time.Time) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Equal(*b)
	}
	return existing.Type == next.Type &&
		existing.Description == next.Description &&
		existing.Amount.Equal(next.Amount) &&
		existing.DueDate.Equal(next.DueDate) &&
		sameDate(existing.PaymentDate, next.PaymentDate) &&
		existing.Status == next.Status &&
		existing.Category == next.Category &&
		samePtr(existing.PersonID, next.PersonID) &&
		samePtr(existing.ContractID, next.ContractID) &&
		samePtr(existing.BankAccountID, next.BankAccountID) &&
		samePtr(existing.PaymentTypeID, next.PaymentTypeID) &&
		samePtr(existing.PropertyID, next.PropertyID)
}

func updateTransactionHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var existing models.Transaction
	if err := db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondDomainError(c, finance.ErrNotFound)
		} else {
			respondDomainError(c, err)
		}
		return
	}

	var in finance.TransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, verrs := finance.ValidateTransaction(in, finance.DBChecker{DB: db})
	if verrs != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verrs})
		return
	}
	if existing.Status == models.StatusCancelled && !onlyNotesChanged(&existing, t) {
		respondDomainError(c, finance.ErrInvalidState)
		return
	}

	t.ID = existing.ID
	err := db.Model(&existing).
		Select("type", "description", "amount", "due_date", "payment_date",
			"status", "category", "person_id", "contract_id",
			"bank_account_id", "payment_type_id", "property_id", "notes").
		Updates(t).Error
	if err != nil {
		respondDomainError(c, err)
		return
	}
	var fresh models.Transaction
	if err := withPreloads(db).First(&fresh, id).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionBody(&fresh))
}

func deleteTransactionHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	res := db.Delete(&models.Transaction{}, id)
	if res.Error != nil {
		respondDomainError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondDomainError(c, finance.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction deleted"})
}

func payTransactionHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	verrs := finance.ValidationErrors{}
	in := finance.PayInput{}

	if v := c.PostForm("payment_date"); v == "" {
		verrs.Add("payment_date", "is required")
	} else if t, err := time.Parse(finance.DateLayout, v); err != nil {
		verrs.Add("payment_date", "must be a valid date in YYYY-MM-DD format")
	} else {
		in.PaymentDate = t
	}
	if v := c.PostForm("payment_type_id"); v == "" {
		verrs.Add("payment_type_id", "is required")
	} else if n, err := strconv.ParseUint(v, 10, 64); err != nil || n == 0 {
		verrs.Add("payment_type_id", "must be a valid id")
	} else if !(finance.DBChecker{DB: db}).PaymentTypeExists(uint(n), false) {
		verrs.Add("payment_type_id", "references a record that does not exist")
	} else {
		in.PaymentTypeID = uint(n)
	}
	if _, present := c.GetPostForm("notes"); present {
		notes := c.PostForm("notes")
		in.Notes = &notes
	}
	if fh, err := c.FormFile("receipt"); err == nil {
		if err := storage.Validate(fh); err != nil {
			verrs.Add("receipt", err.Error())
		} else {
			in.Receipt = fh
		}
	}
	if len(verrs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verrs})
		return
	}

	t, err := finance.Pay(db, receipts, id, in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionBody(t))
}

func cancelTransactionHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Notes *string `json:"notes"`
	}
	// the body is optional; clients using chunked encoding send
	// ContentLength -1, so attempt the bind whenever a body is present
	// and treat an empty one as "no notes"
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	t, err := finance.Cancel(db, id, req.Notes)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionBody(t))
}

func financialSummaryHandler(c *gin.Context) {
	f := filterFromQuery(c)
	var rows []models.Transaction
	if err := db.Model(&models.Transaction{}).Scopes(f.Scope()).Find(&rows).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, finance.Summarize(rows))
}

func cashFlowHandler(c *gin.Context) {
	start, err1 := time.Parse(finance.DateLayout, c.Query("start_date"))
	end, err2 := time.Parse(finance.DateLayout, c.Query("end_date"))
	if err1 != nil || err2 != nil || end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date and end_date are required as YYYY-MM-DD and must form a valid range"})
		return
	}
	f := finance.Filter{DueFrom: &start, DueTo: &end}
	var rows []models.Transaction
	if err := db.Model(&models.Transaction{}).Scopes(f.Scope()).Find(&rows).Error; err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, finance.CashFlow(rows))
}

// categoryReportHandler serves the commissions/rentals/sales sub-reports:
// the regular paginated list pinned to one category.
func categoryReportHandler(category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := filterFromQuery(c)
		f.Category = category

		var total int64
		if err := db.Model(&models.Transaction{}).Scopes(f.Scope()).Count(&total).Error; err != nil {
			respondDomainError(c, err)
			return
		}
		var items []models.Transaction
		q := withPreloads(db.Model(&models.Transaction{})).
			Scopes(f.Scope(), paginate(c), sortScope(c))
		if err := q.Find(&items).Error; err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, paginatedResponse(c, items, total))
	}
}
