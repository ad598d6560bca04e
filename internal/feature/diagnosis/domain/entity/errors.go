package entity

import (
	"errors"
	"fmt"
)

// FailureMessage は分類失敗時にユーザーへ表示する汎用メッセージです。
// 上流のエラー内容はここに含めません。
const FailureMessage = "診断に失敗しました。時間をおいて再度画像をアップロードしてください。"

var (
	// ErrSupersededResponse は新しいリクエストに置き換えられた古いレスポンスを表します。
	// ユーザーには表示せず、黙って破棄します。
	ErrSupersededResponse = errors.New("superseded classification response")

	// ErrInvalidTransition は現在の状態で受け付けられないイベントを表します。
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ClassificationError は分類リクエストの送信またはレスポンス解析の失敗を表します。
// 送信失敗・非成功ステータス・不正なペイロード・タイムアウトはすべてこのエラーになります。
type ClassificationError struct {
	Cause error
}

func (e *ClassificationError) Error() string {
	if e.Cause == nil {
		return "classification failed"
	}
	return fmt.Sprintf("classification failed: %v", e.Cause)
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}

// NewClassificationError はcauseをClassificationErrorで包みます。既に包まれている場合はそのまま返します。
func NewClassificationError(cause error) error {
	var ce *ClassificationError
	if errors.As(cause, &ce) {
		return cause
	}
	return &ClassificationError{Cause: cause}
}
