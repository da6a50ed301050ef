package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"brokerdesk/models"
	"brokerdesk/pkg/finance"
)

// Prints the month's financial summary and cash flow straight from the DB.
func main() {
	month := flag.String("month", time.Now().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	t, err := time.Parse("2006-01", *month)
	if err != nil {
		log.Fatalf("invalid month format, expected YYYY-MM: %v", err)
	}
	start, end := finance.MonthRange(t)
	lastDay := end.AddDate(0, 0, -1)

	f := finance.Filter{DueFrom: &start, DueTo: &lastDay}
	var rows []models.Transaction
	if err := db.Model(&models.Transaction{}).Scopes(f.Scope()).Order("due_date, id").Find(&rows).Error; err != nil {
		log.Fatalf("query failed: %v", err)
	}

	s := finance.Summarize(rows)
	fmt.Printf("Report for month=%s:\n", *month)
	fmt.Printf("  count=%d total=%s pending=%s paid=%s\n",
		s.Count, s.Total.StringFixed(2), s.PendingAmount.StringFixed(2), s.PaidAmount.StringFixed(2))
	fmt.Printf("  receivables: total=%s pending=%s\n",
		s.Receivables.Total.StringFixed(2), s.Receivables.Pending.StringFixed(2))
	fmt.Printf("  payables:    total=%s pending=%s\n",
		s.Payables.Total.StringFixed(2), s.Payables.Pending.StringFixed(2))

	fmt.Println("Cash flow:")
	for _, b := range finance.CashFlow(rows) {
		fmt.Printf("  %s income=%s expense=%s balance=%s\n",
			b.Date, b.Income.StringFixed(2), b.Expense.StringFixed(2), b.Balance.StringFixed(2))
	}

	if *list {
		for _, r := range rows {
			fmt.Printf("%d|%s|%s|%s|%s|%s\n",
				r.ID, r.Type, r.Category, r.Amount.StringFixed(2),
				r.DueDate.Format(finance.DateLayout), r.Status)
		}
	}
}
