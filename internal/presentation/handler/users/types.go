package users

import "time"

// registerRequest represents a new account registration
type registerRequest struct {
	Username string `json:"username" example:"jane_doe" minLength:"2"` // Desired username
	Email    string `json:"email" example:"jane@example.com"`          // Account email, unique
	Password string `json:"password" example:"s3cret-passw0rd"`        // Plaintext password, hashed server-side
	Role     string `json:"role" example:"student" enum:"student,teacher,admin"`
}

// loginRequest represents a login attempt
type loginRequest struct {
	Email    string `json:"email" example:"jane@example.com"`
	Password string `json:"password" example:"s3cret-passw0rd"`
}

// authResponse is returned on successful register or login
type authResponse struct {
	Token string       `json:"token"` // Signed bearer token
	User  userResponse `json:"user"`
}

// userResponse represents the public view of an account
type userResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username  string    `json:"username" example:"jane_doe"`
	Email     string    `json:"email" example:"jane@example.com"`
	Role      string    `json:"role" example:"student"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-01T12:00:00Z"`
}
