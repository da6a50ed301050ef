package finance

import (
	"gorm.io/gorm"

	"brokerdesk/models"
)

// DBChecker implements ReferenceChecker against the database. Soft-deleted
// rows fail the check unless includeDeleted is set.
type DBChecker struct {
	DB *gorm.DB
}

func (c DBChecker) exists(model interface{}, id uint, includeDeleted bool) bool {
	q := c.DB.Model(model)
	if includeDeleted {
		q = q.Unscoped()
	}
	var count int64
	if err := q.Where("id = ?", id).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

func (c DBChecker) PersonExists(id uint, includeDeleted bool) bool {
	return c.exists(&models.Person{}, id, includeDeleted)
}

func (c DBChecker) ContractExists(id uint, includeDeleted bool) bool {
	return c.exists(&models.Contract{}, id, includeDeleted)
}

func (c DBChecker) PropertyExists(id uint, includeDeleted bool) bool {
	return c.exists(&models.Property{}, id, includeDeleted)
}

func (c DBChecker) BankAccountExists(id uint, includeDeleted bool) bool {
	return c.exists(&models.BankAccount{}, id, includeDeleted)
}

func (c DBChecker) PaymentTypeExists(id uint, includeDeleted bool) bool {
	return c.exists(&models.PaymentType{}, id, includeDeleted)
}
