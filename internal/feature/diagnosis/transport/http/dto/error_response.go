// Package dto はdiagnosisフィーチャーのHTTPリクエスト・レスポンスDTOを定義します。
package dto

// ErrorResponse はエラー時の共通レスポンスです。上流の原因は含めません。
type ErrorResponse struct {
	Error string `json:"error"`
}
