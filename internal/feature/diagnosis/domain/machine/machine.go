// Package machine は診断セッションの状態遷移関数を提供します。
//
// すべての入力（ファイル選択・レスポンス到着・リセット・表示切替）は名前付きイベントとして
// Transition に渡され、新しいセッション値が返されます。遷移は副作用を持たず、
// 分類リクエストの発行は Effect として呼び出し側に委ねます。
package machine

import (
	"errors"
	"fmt"
	"time"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
)

// ErrInvalidViewport は負のコンテナ寸法を表します。
var ErrInvalidViewport = errors.New("invalid viewport size")

// Event は状態機械への入力です。
type Event interface {
	event()
}

// FileSelected はファイル選択（入力変更・ドラッグ&ドロップ）イベントです。
type FileSelected struct {
	Asset entity.ImageAsset
}

// ClassificationStarted は分類リクエストを発行したことを表します。
type ClassificationStarted struct {
	Seq uint64
}

// ClassificationSucceeded は分類レスポンスの到着です。
type ClassificationSucceeded struct {
	Seq     uint64
	Outcome entity.ClassificationOutcome
}

// ClassificationFailed は分類の失敗です。
type ClassificationFailed struct {
	Seq   uint64
	Cause error
}

// ResetRequested は明示的なリセットです。
type ResetRequested struct{}

// ReportExpanded は詳細レポートの展開操作です。
type ReportExpanded struct{}

// OverlayToggled は検出オーバーレイの表示切替です。
type OverlayToggled struct{}

// ViewportResized は描画コンテナの寸法変更です。
type ViewportResized struct {
	Width  float64
	Height float64
}

func (FileSelected) event()            {}
func (ClassificationStarted) event()   {}
func (ClassificationSucceeded) event() {}
func (ClassificationFailed) event()    {}
func (ResetRequested) event()          {}
func (ReportExpanded) event()          {}
func (OverlayToggled) event()          {}
func (ViewportResized) event()         {}

// Effect は遷移の結果として呼び出し側が実行すべき処理です。
type Effect struct {
	Classify bool   // trueなら分類リクエストを発行する
	Seq      uint64 // 発行するリクエストのシーケンス番号
}

// Transition は現在のセッションにイベントを適用し、次のセッションを返します。
// エラーを返した場合、セッションは変更されません（イベントは全く適用されないか、完全に適用されるかのどちらか）。
func Transition(s entity.Session, ev Event, now time.Time) (entity.Session, Effect, error) {
	switch e := ev.(type) {
	case FileSelected:
		return selectFile(s, e, now)
	case ClassificationStarted:
		if s.Phase != entity.PhasePreviewing || e.Seq != s.Seq {
			return s, Effect{}, entity.ErrSupersededResponse
		}
		next := s
		next.Phase = entity.PhaseClassifying
		next.UpdatedAt = now
		return next, Effect{}, nil
	case ClassificationSucceeded:
		if s.Phase != entity.PhaseClassifying || e.Seq != s.Seq {
			return s, Effect{}, entity.ErrSupersededResponse
		}
		return succeed(s, e.Outcome, now), Effect{}, nil
	case ClassificationFailed:
		if s.Phase != entity.PhaseClassifying || e.Seq != s.Seq {
			return s, Effect{}, entity.ErrSupersededResponse
		}
		next := s
		next.Phase = entity.PhaseFailed
		next.Result = nil
		next.Detections = nil
		next.Dimensions = nil
		next.ErrorMessage = entity.FailureMessage
		if e.Cause != nil {
			next.FailureCause = e.Cause.Error()
		}
		next.UpdatedAt = now
		return next, Effect{}, nil
	case ResetRequested:
		next := entity.Session{
			ID:             s.ID,
			Phase:          entity.PhaseIdle,
			Seq:            s.Seq + 1, // 処理中のレスポンスを無効化する
			OverlayVisible: true,
			Viewport:       s.Viewport,
			CreatedAt:      s.CreatedAt,
			UpdatedAt:      now,
		}
		return next, Effect{}, nil
	case ReportExpanded:
		if s.Phase != entity.PhaseSucceeded {
			return s, Effect{}, fmt.Errorf("%w: report requires %s, session is %s", entity.ErrInvalidTransition, entity.PhaseSucceeded, s.Phase)
		}
		next := s
		next.ReportExpanded = true
		next.UpdatedAt = now
		return next, Effect{}, nil
	case OverlayToggled:
		next := s
		next.OverlayVisible = !s.OverlayVisible
		next.UpdatedAt = now
		return next, Effect{}, nil
	case ViewportResized:
		if e.Width < 0 || e.Height < 0 {
			return s, Effect{}, fmt.Errorf("%w: %gx%g", ErrInvalidViewport, e.Width, e.Height)
		}
		next := s
		next.Viewport = entity.Viewport{Width: e.Width, Height: e.Height}
		next.UpdatedAt = now
		return next, Effect{}, nil
	default:
		return s, Effect{}, fmt.Errorf("%w: unknown event %T", entity.ErrInvalidTransition, ev)
	}
}

// selectFile はどの状態からでも新しい画像でセッションを作り直します。
// 前の画像の結果・検出・レポート状態は一切引き継ぎません。
func selectFile(s entity.Session, e FileSelected, now time.Time) (entity.Session, Effect, error) {
	asset := e.Asset
	next := entity.Session{
		ID:             s.ID,
		Phase:          entity.PhasePreviewing,
		Seq:            s.Seq + 1,
		Image:          &asset,
		OverlayVisible: true,
		Viewport:       s.Viewport,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      now,
	}
	return next, Effect{Classify: true, Seq: next.Seq}, nil
}

func succeed(s entity.Session, out entity.ClassificationOutcome, now time.Time) entity.Session {
	next := s
	result := out.Result
	result.Alternatives = append([]entity.Prediction(nil), out.Result.Alternatives...)
	next.Phase = entity.PhaseSucceeded
	next.Result = &result
	next.Detections = append([]entity.Detection{}, out.Detections...)
	next.ErrorMessage = ""
	next.FailureCause = ""
	next.Dimensions = nil

	switch {
	case out.Dimensions != nil:
		dims := *out.Dimensions
		next.Dimensions = &dims
	case s.Image != nil && s.Image.Natural.Valid():
		// サービスが寸法を返さない場合は元画像の寸法を推論空間とみなす
		dims := s.Image.Natural
		next.Dimensions = &dims
	}
	next.UpdatedAt = now
	return next
}
