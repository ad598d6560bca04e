package inference

import (
	"context"
	"time"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
	"mri_diagnosis/internal/shared/ratelimiter"
)

// RateLimitedClassifier は推論サービスへの送信頻度を制限するデコレーターです。
type RateLimitedClassifier struct {
	next    usecase.Classifier
	limiter ratelimiter.Limiter
}

var _ usecase.Classifier = (*RateLimitedClassifier)(nil)

// NewRateLimitedClassifier は1分あたりperMinute回までに送信を制限します。
func NewRateLimitedClassifier(next usecase.Classifier, perMinute int) *RateLimitedClassifier {
	return &RateLimitedClassifier{
		next:    next,
		limiter: ratelimiter.NewRateLimiter(perMinute, time.Minute),
	}
}

// Classify は送信枠を待ってから次のClassifierを呼び出します。
// 待機中にctxが終了した場合は entity.ClassificationError を返します。
func (r *RateLimitedClassifier) Classify(ctx context.Context, filename string, data []byte) (*entity.ClassificationOutcome, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, entity.NewClassificationError(err)
	}
	return r.next.Classify(ctx, filename, data)
}
