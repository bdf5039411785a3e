package domain

const (
	RoleBuyer  = "BUYER"
	RoleSeller = "SELLER"
	RoleAdmin  = "ADMIN"
)

// Notification types emitted by the brokerage. The type column stays
// free-form; publishers may send anything, these are the ones the web
// client renders with dedicated icons.
const (
	NotificationMessage     = "message"
	NotificationAlert       = "alert"
	NotificationSystem      = "system"
	NotificationAppointment = "appointment"
	NotificationListing     = "listing"
)

// DefaultNotificationType is stored when a publisher omits the type.
const DefaultNotificationType = NotificationSystem

func ValidRole(role string) bool {
	switch role {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}
