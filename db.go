package main

import (
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"brokerdesk/models"
	"brokerdesk/pkg/storage"
)

var db *gorm.DB

var receipts storage.Store

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal().Msg("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect postgres database")
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		for name, m := range map[string]interface{}{
			"roles":         &models.Role{},
			"permissions":   &models.Permission{},
			"users":         &models.User{},
			"people":        &models.Person{},
			"properties":    &models.Property{},
			"contracts":     &models.Contract{},
			"bank_accounts": &models.BankAccount{},
			"payment_types": &models.PaymentType{},
			"transactions":  &models.Transaction{},
		} {
			if err := db.AutoMigrate(m); err != nil {
				log.Warn().Err(err).Str("table", name).Msg("migration warning")
			}
		}
	}
	seedDB()

	receipts, err = storage.NewLocalStore(uploadBaseDir())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare receipt storage")
	}
}

func seedDB() {
	// Master permissions; manage_financial gates the whole ledger surface.
	perms := []models.Permission{
		{Name: "manage_financial", Description: "financial transactions and reports"},
		{Name: "manage_properties", Description: "property records"},
		{Name: "manage_contracts", Description: "contract records"},
		{Name: "manage_people", Description: "people records"},
	}
	for i, p := range perms {
		db.Where("name = ?", p.Name).FirstOrCreate(&perms[i], p)
	}

	// Master roles: administrator gets everything, agent only the CRUD side.
	var admin models.Role
	db.Where("name = ?", "administrator").
		FirstOrCreate(&admin, models.Role{Name: "administrator", Description: "full access"})
	if err := db.Model(&admin).Association("Permissions").Replace(perms); err != nil {
		log.Warn().Err(err).Msg("failed to attach administrator permissions")
	}
	var agent models.Role
	db.Where("name = ?", "agent").
		FirstOrCreate(&agent, models.Role{Name: "agent", Description: "broker without financial access"})
	if err := db.Model(&agent).Association("Permissions").Replace(perms[1:]); err != nil {
		log.Warn().Err(err).Msg("failed to attach agent permissions")
	}

	// Settlement methods referenced by paid transactions
	for _, name := range []string{"cash", "bank transfer", "check", "credit card", "pix"} {
		var pt models.PaymentType
		db.Where("name = ?", name).FirstOrCreate(&pt, models.PaymentType{Name: name})
	}

	var accounts int64
	db.Model(&models.BankAccount{}).Count(&accounts)
	if accounts == 0 {
		db.Create(&models.BankAccount{Name: "main account", Active: true})
	}

	// Seed admin user
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		rid := admin.ID
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		user := models.User{Username: "admin", RoleID: &rid, HashedPassword: hashedPassword}
		db.Create(&user)
		log.Info().Msg("seeded admin user: username=admin, password=admin123")
	}
}

// uploadBaseDir returns the base directory for stored receipts (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
