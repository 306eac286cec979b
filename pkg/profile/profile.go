package profile

// Profile is a durable user record. ID is the opaque identity assigned
// by the credential provider and is never empty once the profile has
// been created. Secret is write-only: it is persisted on save but never
// read back by this module.
type Profile struct {
	ID          string `json:"id" bson:"_id"`
	DisplayName string `json:"display_name" bson:"display_name"`
	Email       string `json:"email" bson:"email"`
	Secret      string `json:"-" bson:"secret,omitempty"`
	Verified    bool   `json:"verified" bson:"verified"`
}
