package profile

// Profile is the single local user's personal details. The insight features
// only need DisplayName; the contact fields are kept for the support circle.
type Profile struct {
	DisplayName string `json:"display_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Profile keys as stored.
const (
	KeyDisplayName = "display_name"
	KeyPhoneNumber = "phone_number"
	KeyEmail       = "email"
)

// DefaultDisplayName is used wherever the user has not set a name.
const DefaultDisplayName = "User"

// Keys lists every settable profile key.
var Keys = []string{KeyDisplayName, KeyPhoneNumber, KeyEmail}
