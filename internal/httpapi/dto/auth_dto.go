package dto

// Data Transfer Objects for signup and token exchange

// SignUpRequest: payload for self-registration. No password: the account is
// confirmed by the emailed code.
type SignUpRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,max=254"`
}

// SignUpResponse echoes the accepted payload, matching the request whether a
// user was created or a code was re-sent.
type SignUpResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for exchanging a confirmation code for a bearer token
type TokenRequest struct {
	Username         string `json:"username" binding:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// TokenResponse: the minted access credential
type TokenResponse struct {
	Token string `json:"token"`
}
