package api

// ErrorResponse API错误响应
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse API成功响应
type SuccessResponse struct {
	Message string `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangeMapRequest 换图请求
type ChangeMapRequest struct {
	MapID string `json:"map_id"`
}

// UpdateTurnRequest 回合更新请求
type UpdateTurnRequest struct {
	TurnNumber int    `json:"turn_number" binding:"required,min=1"`
	TurnPhase  string `json:"turn_phase" binding:"required"`
}
