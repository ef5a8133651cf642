package domain

// User is the account record reported by the external identity provider.
// The storefront never stores credentials; it only carries the provider's
// view of the user for the lifetime of a session.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
}
