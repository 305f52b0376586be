// Package policy holds the row access rules for profiles, feedback pages and feedback.
//
// Every rule is a pure function of the caller and the facts of the row it touches, so the
// rules can be tested without a database. The gorm scopes in scopes.go express the read rules
// as query predicates so rows a caller may not see are never loaded. CanUpdateFeedback and
// CanDeleteFeedback complete the table; no code path updates or deletes single feedback rows.
package policy

import "strings"

// Caller is the identity a request acts as. The zero value is an anonymous caller.
type Caller struct {
	UserID string
}

// Anonymous returns a caller without identity.
func Anonymous() Caller {
	return Caller{}
}

// Authenticated returns a caller for the given user id.
func Authenticated(userID string) Caller {
	return Caller{UserID: strings.TrimSpace(userID)}
}

// IsAuthenticated reports whether the caller carries an identity.
func (c Caller) IsAuthenticated() bool {
	return c.UserID != ""
}

func (c Caller) owns(ownerID string) bool {
	return c.IsAuthenticated() && c.UserID == ownerID
}

// PageFacts are the columns of a feedback page the rules depend on.
type PageFacts struct {
	OwnerID  string
	IsActive bool
}

// CanReadProfile allows owners only.
func CanReadProfile(caller Caller, profileUserID string) bool {
	return caller.owns(profileUserID)
}

// CanInsertProfile allows a caller to create only their own profile.
func CanInsertProfile(caller Caller, profileUserID string) bool {
	return caller.owns(profileUserID)
}

// CanUpdateProfile allows owners only.
func CanUpdateProfile(caller Caller, profileUserID string) bool {
	return caller.owns(profileUserID)
}

// CanReadPage allows the owner, or anyone while the page is active.
func CanReadPage(caller Caller, page PageFacts) bool {
	return caller.owns(page.OwnerID) || page.IsActive
}

// CanManagePage is the owner-only read used by dashboard views.
func CanManagePage(caller Caller, page PageFacts) bool {
	return caller.owns(page.OwnerID)
}

// CanInsertPage requires an identity and that the caller becomes the owner.
func CanInsertPage(caller Caller, ownerID string) bool {
	return caller.owns(ownerID)
}

// CanUpdatePage allows owners only.
func CanUpdatePage(caller Caller, page PageFacts) bool {
	return caller.owns(page.OwnerID)
}

// CanDeletePage allows owners only.
func CanDeletePage(caller Caller, page PageFacts) bool {
	return caller.owns(page.OwnerID)
}

// CanReadFeedback allows anyone for active pages and the page owner always.
func CanReadFeedback(caller Caller, page PageFacts) bool {
	return page.IsActive || caller.owns(page.OwnerID)
}

// CanInsertFeedback allows any caller, authenticated or not, while the page is active.
func CanInsertFeedback(_ Caller, page PageFacts) bool {
	return page.IsActive
}

// CanUpdateFeedback is always false: feedback is immutable.
func CanUpdateFeedback(Caller, PageFacts) bool {
	return false
}

// CanDeleteFeedback is always false: feedback leaves only with its page.
func CanDeleteFeedback(Caller, PageFacts) bool {
	return false
}
