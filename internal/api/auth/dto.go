package auth

type LoginRequest struct {
	Passphrase string `json:"passphrase" validate:"required,max=128"`
}

type LoginResponse struct {
	AccessToken      string  `json:"access_token"`
	ExpiresInMinutes float64 `json:"expires_in_minutes"`
}

type MeResponse struct {
	Subject     string `json:"subject"`
	AuthEnabled bool   `json:"auth_enabled"`
}
