package session

// User is the backend's user record. Beyond identity it is treated as a
// passthrough value; downstream stores read what they need from it.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at,omitempty"`
}
