package oauthmodel

// RefreshRequest is posted to /auth/refresh. It carries no bearer header.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}

// TwoFactorVerifyRequest exchanges a pre-auth token and a TOTP code for a
// full token set.
type TwoFactorVerifyRequest struct {
	PreAuthToken string `json:"preAuthToken"`
	Code         string `json:"code"`
}

type TwoFactorSetupResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl,omitempty"`
	QRCode     string `json:"qrCode,omitempty"`
}

type TwoFactorEnableRequest struct {
	Code string `json:"code"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type PasswordVerifyRequest struct {
	Password string `json:"password"`
}
