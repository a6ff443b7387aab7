package auth

// TokenRequest — запрос на выпуск токена
type TokenRequest struct {
	UserID string `json:"user_id"`
}

// TokenResponse — выданный access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}
