// Package events defines the change notifications emitted after admin writes.
package events

import "context"

// Change notification names.
const (
	SolutionsUpdate   = "SOLUTIONS_UPDATE"
	CompanyInfoUpdate = "COMPANY_INFO_UPDATE"
	ContactInfoUpdate = "CONTACT_INFO_UPDATE"
	StatisticsUpdate  = "STATISTICS_UPDATE"
	AdminUsersUpdate  = "ADMIN_USERS_UPDATE"
)

// Publisher delivers a change notification. Implementations must not block on slow readers.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) {}
