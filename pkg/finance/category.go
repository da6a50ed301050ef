package finance

import "brokerdesk/models"

// RequiredFieldsFor returns the reference fields that become mandatory for
// the given category, beyond the base field set. Rent and sale entries must
// point at the property and its contract; commissions at the broker and the
// contract the commission is owed on. Maintenance, tax and other entries
// need nothing extra.
//
// Unknown categories return nothing; the category enum check upstream
// rejects them before this table is consulted.
func RequiredFieldsFor(category string) []string {
	switch category {
	case models.CategoryRent, models.CategorySale:
		return []string{"property_id", "contract_id"}
	case models.CategoryCommission:
		return []string{"person_id", "contract_id"}
	default:
		return nil
	}
}
