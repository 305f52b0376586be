package policy

import "gorm.io/gorm"

const (
	columnOwnerID  = "owner_id"
	columnIsActive = "is_active"
	columnUserID   = "user_id"
)

// denyAll yields no rows regardless of the rest of the query.
func denyAll(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

// OwnedPages restricts a feedback_pages query to rows the caller manages.
func OwnedPages(caller Caller) func(*gorm.DB) *gorm.DB {
	if !caller.IsAuthenticated() {
		return denyAll
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(columnOwnerID+" = ?", caller.UserID)
	}
}

// PublicPages restricts a feedback_pages query to pages visible on the public surface.
func PublicPages(db *gorm.DB) *gorm.DB {
	return db.Where(columnIsActive+" = ?", true)
}

// OwnProfile restricts a profiles query to the caller's row.
func OwnProfile(caller Caller) func(*gorm.DB) *gorm.DB {
	if !caller.IsAuthenticated() {
		return denyAll
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(columnUserID+" = ?", caller.UserID)
	}
}
