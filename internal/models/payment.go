package models

// PaymentStatus values for registrations and purchases.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusFree      = "free"
	PaymentStatusRefunded  = "refunded"
)

// ItemType identifies what an order is for.
const (
	ItemTypeWebinar = "webinar"
	ItemTypeService = "service"
)

// IsPaidStatus reports whether a status grants access to the item.
func IsPaidStatus(status string) bool {
	return status == PaymentStatusCompleted || status == PaymentStatusFree
}

// ValidItemType reports whether t names a known item type.
func ValidItemType(t string) bool {
	return t == ItemTypeWebinar || t == ItemTypeService
}
