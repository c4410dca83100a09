package dto

// RegisterDTO is the registration request body.
type RegisterDTO struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=instructor student"`
}

// LoginDTO is the login request body.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserDTO is the user shape returned alongside tokens.
type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// LoginResponseDTO is returned on successful login.
type LoginResponseDTO struct {
	Message     string  `json:"message"`
	AccessToken string  `json:"accessToken"`
	User        UserDTO `json:"user"`
}

// RefreshResponseDTO is returned when an access token is re-issued.
type RefreshResponseDTO struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}
