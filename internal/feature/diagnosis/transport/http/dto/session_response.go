package dto

import "time"

// SessionResponse はセッション作成時のレスポンスDTOです。
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	View      ViewResponse `json:"view"`
}

// ViewportRequest は表示コンテナのリサイズ要求です。
type ViewportRequest struct {
	Width  *float64 `json:"width" binding:"required,gte=0"`
	Height *float64 `json:"height" binding:"required,gte=0"`
}
