package authhandler

import "ridehailgo/internal/services/identity"

type SignUpBody struct {
	Username  string `json:"username"  binding:"required"`
	Email     string `json:"email"     binding:"omitempty,email"`
	Password1 string `json:"password1" binding:"required,min=8"`
	Password2 string `json:"password2" binding:"required"`
	Group     string `json:"group"     binding:"omitempty,oneof=driver rider"`
} // @name SignUpRequest

type LogInBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
} // @name LogInRequest

// PrivateUserResponse is only ever returned to the account owner; the token
// never appears in any broadcast or trip payload.
type PrivateUserResponse struct {
	identity.UserDTO
	AuthToken string `json:"auth_token,omitempty"`
} // @name PrivateUserResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
