package dto

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Message   string `json:"message"`
	ExpiresAt int64  `json:"expires_at"`
}
