package main

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaginatedResponse is the standard shape of every listing endpoint.
type PaginatedResponse struct {
	Items interface{}    `json:"items"`
	Meta  PaginationMeta `json:"meta"`
}

type PaginationMeta struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	switch {
	case perPage > maxPerPage:
		perPage = maxPerPage
	case perPage <= 0:
		perPage = defaultPerPage
	}
	return page, perPage
}

// paginate is a GORM scope applying offset and limit from "page" and
// "per_page" query parameters.
func paginate(c *gin.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page, perPage := pageParams(c)
		return db.Offset((page - 1) * perPage).Limit(perPage)
	}
}

// sortColumns whitelists the sortable columns of the transaction list.
var sortColumns = map[string]string{
	"due_date":   "due_date",
	"amount":     "amount",
	"status":     "status",
	"created_at": "created_at",
}

// sortScope orders by the whitelisted "sort" column; unknown columns fall
// back to due_date. Direction is asc unless "direction=desc".
func sortScope(c *gin.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col, ok := sortColumns[c.Query("sort")]
		if !ok {
			col = "due_date"
		}
		dir := "asc"
		if c.Query("direction") == "desc" {
			dir = "desc"
		}
		return db.Order(col + " " + dir)
	}
}

func paginatedResponse(c *gin.Context, items interface{}, total int64) PaginatedResponse {
	page, perPage := pageParams(c)
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return PaginatedResponse{
		Items: items,
		Meta: PaginationMeta{
			Total:      total,
			TotalPages: totalPages,
			Page:       page,
			PerPage:    perPage,
		},
	}
}
