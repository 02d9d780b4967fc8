package domain

// UnknownIP is stored when the client address cannot be determined.
const UnknownIP = "unknown"

// Identity is the uniqueness key used for rating and reaction submissions.
// Key is "user:<id>" for signed-in callers and "device:<id>" otherwise.
type Identity struct {
	Key         string
	UserID      *string
	DeviceID    *string
	IP          string
	Fingerprint *string
}

// Anonymous reports whether the identity is not backed by a verified user.
func (i Identity) Anonymous() bool {
	return i.UserID == nil
}
