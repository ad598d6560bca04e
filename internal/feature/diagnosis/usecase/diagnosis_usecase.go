package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/domain/geometry"
	"mri_diagnosis/internal/feature/diagnosis/domain/machine"
	"mri_diagnosis/internal/feature/diagnosis/domain/render"
	"mri_diagnosis/internal/feature/diagnosis/domain/report"
)

const (
	// MaxImageSize は画像アップロードの最大サイズ（10MB）です。
	MaxImageSize = 10 * 1024 * 1024
	// DefaultClassifyTimeout は分類リクエスト1回あたりの既定のタイムアウトです。
	DefaultClassifyTimeout = 30 * time.Second

	// DefaultSessionTTL はRender Coordinatorを保持する既定の無操作期間です。
	DefaultSessionTTL = 2 * time.Hour

	narrateTimeout = 20 * time.Second
	settleTimeout  = 5 * time.Second
	sweepInterval  = time.Minute
)

// Classifier は画像を推論サービスに送信し、正規化済みの分類結果を返します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Classifier interface {
	// Classify は失敗時に entity.ClassificationError を返します。リトライは行いません。
	Classify(ctx context.Context, filename string, data []byte) (*entity.ClassificationOutcome, error)
}

// Previewer はアップロード画像から埋め込み可能なプレビューを生成します。
type Previewer interface {
	// Preview は画像でない場合に ErrUnsupportedImage をラップしたエラーを返します。
	Preview(filename string, data []byte) (*entity.ImageAsset, error)
}

// SessionRepository は診断セッションの保存先を抽象化します。
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	// Get は存在しない場合に ErrSessionNotFound を返します。
	Get(ctx context.Context, id string) (*entity.Session, error)
	Save(ctx context.Context, session *entity.Session) error
	Delete(ctx context.Context, id string) error
}

// ReportNarrator は詳細レポートの説明文を生成します（任意）。
type ReportNarrator interface {
	Narrate(ctx context.Context, report entity.Report) (string, error)
}

// Option は diagnosisUsecase の設定を変更します。
type Option func(*diagnosisUsecase)

// WithNarrator はレポート説明文の生成器を設定します。
func WithNarrator(n ReportNarrator) Option {
	return func(u *diagnosisUsecase) { u.narrator = n }
}

// WithTimeout は分類リクエストのタイムアウトを設定します。
func WithTimeout(d time.Duration) Option {
	return func(u *diagnosisUsecase) {
		if d > 0 {
			u.timeout = d
		}
	}
}

// WithClock は現在時刻の取得関数を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(u *diagnosisUsecase) { u.now = now }
}

// WithIDGenerator はセッションIDの生成関数を差し替えます。
func WithIDGenerator(gen func() string) Option {
	return func(u *diagnosisUsecase) { u.newID = gen }
}

// WithSessionTTL はセッションの有効期間を設定します。
// この期間アクセスのないセッションのRender Coordinatorは破棄されます。
func WithSessionTTL(d time.Duration) Option {
	return func(u *diagnosisUsecase) {
		if d > 0 {
			u.sessionTTL = d
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *slog.Logger) Option {
	return func(u *diagnosisUsecase) { u.logger = logger }
}

// inflight は実行中の分類リクエストです。
type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// coordinatorEntry はセッションごとのRender Coordinatorと最終利用時刻です。
type coordinatorEntry struct {
	coordinator *render.Coordinator
	lastUsed    time.Time
}

// diagnosisUsecase は診断セッションのライフサイクルを管理します。
//
// すべてのイベントはセッション単位のロックの下で「読み込み → 遷移 → 保存」として適用されるため、
// 1つのイベントが部分的に反映されることはありません。分類リクエストは非同期に実行され、
// 到着したレスポンスはシーケンス番号で照合されます。
type diagnosisUsecase struct {
	sessions   SessionRepository
	classifier Classifier
	previewer  Previewer
	deriver    *report.Deriver
	narrator   ReportNarrator

	timeout    time.Duration
	sessionTTL time.Duration
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger

	locks *lockTable

	mu           sync.Mutex
	inflight     map[string]inflight
	coordinators map[string]*coordinatorEntry
	lastSweep    time.Time

	wg sync.WaitGroup
}

// NewDiagnosisUsecase はdiagnosisUsecaseの新しいインスタンスを生成します。
func NewDiagnosisUsecase(sessions SessionRepository, classifier Classifier, previewer Previewer, deriver *report.Deriver, opts ...Option) *diagnosisUsecase {
	u := &diagnosisUsecase{
		sessions:     sessions,
		classifier:   classifier,
		previewer:    previewer,
		deriver:      deriver,
		timeout:      DefaultClassifyTimeout,
		sessionTTL:   DefaultSessionTTL,
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       slog.Default(),
		locks:        newLockTable(),
		inflight:     make(map[string]inflight),
		coordinators: make(map[string]*coordinatorEntry),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.deriver == nil {
		u.deriver = report.NewDeriver(report.DefaultConfig())
	}
	return u
}

// CreateSession はIdle状態の新しいセッションを生成します。
func (u *diagnosisUsecase) CreateSession(ctx context.Context) (*entity.Session, error) {
	s := entity.NewSession(u.newID(), u.now())
	if err := u.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	u.logger.InfoContext(ctx, "diagnosis session created", "session_id", s.ID)
	return s, nil
}

// SelectFile は画像を受け付けてプレビューを生成し、分類リクエストを非同期に発行します。
// 同じセッションで実行中のリクエストは取り消され、その結果は反映されません。
// 戻り値はClassifying状態のビューです。
func (u *diagnosisUsecase) SelectFile(ctx context.Context, sessionID, filename string, data []byte) (*entity.View, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(data), MaxImageSize)
	}

	asset, err := u.previewer.Preview(filename, data)
	if err != nil {
		return nil, err
	}
	asset.Data = nil

	unlock := u.locks.lock(sessionID)
	defer unlock()

	var seq uint64
	s, err := u.transitionLocked(ctx, sessionID, func(s entity.Session, now time.Time) (entity.Session, error) {
		next, eff, err := machine.Transition(s, machine.FileSelected{Asset: *asset}, now)
		if err != nil {
			return s, err
		}
		seq = eff.Seq
		return applyEvent(next, machine.ClassificationStarted{Seq: seq}, now)
	})
	if err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "classification requested",
		"session_id", sessionID,
		"seq", seq,
		"filename", asset.Filename,
		"content_type", asset.ContentType,
		"size", asset.Size,
	)
	u.launch(ctx, sessionID, seq, asset.Filename, data)
	return u.view(s), nil
}

// View はセッションの現在の状態とオーバーレイを返します。
func (u *diagnosisUsecase) View(ctx context.Context, sessionID string) (*entity.View, error) {
	unlock := u.locks.lock(sessionID)
	defer unlock()

	s, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		u.forgetIfGone(sessionID, err)
		return nil, err
	}
	return u.view(*s), nil
}

// ResizeViewport は描画コンテナの寸法を記録します。
func (u *diagnosisUsecase) ResizeViewport(ctx context.Context, sessionID string, width, height float64) (*entity.View, error) {
	s, err := u.apply(ctx, sessionID, machine.ViewportResized{Width: width, Height: height})
	if err != nil {
		return nil, err
	}
	return u.view(s), nil
}

// ToggleOverlay は検出オーバーレイの表示を切り替えます。幾何計算は行いません。
func (u *diagnosisUsecase) ToggleOverlay(ctx context.Context, sessionID string) (*entity.View, error) {
	s, err := u.apply(ctx, sessionID, machine.OverlayToggled{})
	if err != nil {
		return nil, err
	}
	return u.view(s), nil
}

// ExpandReport は詳細レポートを展開し、導出したレポートを返します。
// Succeeded状態以外では ErrReportUnavailable を返します。
// 説明文の生成に失敗してもレポート自体は返します。
func (u *diagnosisUsecase) ExpandReport(ctx context.Context, sessionID string) (*entity.Report, error) {
	s, err := u.apply(ctx, sessionID, machine.ReportExpanded{})
	if err != nil {
		if errors.Is(err, entity.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %w", ErrReportUnavailable, err)
		}
		return nil, err
	}

	rep, err := u.deriver.Derive(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportUnavailable, err)
	}

	if u.narrator != nil {
		nctx, cancel := context.WithTimeout(ctx, narrateTimeout)
		defer cancel()
		text, err := u.narrator.Narrate(nctx, rep)
		if err != nil {
			u.logger.WarnContext(ctx, "report narrative unavailable", "session_id", sessionID, "error", err)
		} else {
			rep.Narrative = text
		}
	}
	return &rep, nil
}

// Reset はセッションをIdleに戻し、実行中の分類リクエストを取り消します。
func (u *diagnosisUsecase) Reset(ctx context.Context, sessionID string) (*entity.View, error) {
	unlock := u.locks.lock(sessionID)
	defer unlock()

	s, err := u.transitionLocked(ctx, sessionID, func(s entity.Session, now time.Time) (entity.Session, error) {
		return applyEvent(s, machine.ResetRequested{}, now)
	})
	if err != nil {
		return nil, err
	}
	u.cancelInflight(sessionID)
	u.logger.InfoContext(ctx, "diagnosis session reset", "session_id", sessionID)
	return u.view(s), nil
}

// EndSession はセッションを破棄します。
func (u *diagnosisUsecase) EndSession(ctx context.Context, sessionID string) error {
	unlock := u.locks.lock(sessionID)
	defer unlock()

	u.cancelInflight(sessionID)
	u.forget(sessionID)
	if err := u.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	u.logger.InfoContext(ctx, "diagnosis session ended", "session_id", sessionID)
	return nil
}

// Wait は実行中のすべての分類リクエストが確定するまで待機します。
func (u *diagnosisUsecase) Wait() {
	u.wg.Wait()
}

// apply はセッションロックの下で1つのイベントを適用します。
func (u *diagnosisUsecase) apply(ctx context.Context, sessionID string, ev machine.Event) (entity.Session, error) {
	unlock := u.locks.lock(sessionID)
	defer unlock()

	return u.transitionLocked(ctx, sessionID, func(s entity.Session, now time.Time) (entity.Session, error) {
		return applyEvent(s, ev, now)
	})
}

// transitionLocked はセッションを読み込み、fnで遷移させて保存します。呼び出し側がロックを保持している必要があります。
// fnがエラーを返した場合は何も保存しません。
func (u *diagnosisUsecase) transitionLocked(ctx context.Context, sessionID string, fn func(entity.Session, time.Time) (entity.Session, error)) (entity.Session, error) {
	cur, err := u.sessions.Get(ctx, sessionID)
	if err != nil {
		u.forgetIfGone(sessionID, err)
		return entity.Session{}, err
	}
	next, err := fn(*cur, u.now())
	if err != nil {
		return *cur, err
	}
	if err := u.sessions.Save(ctx, &next); err != nil {
		return *cur, fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return next, nil
}

func applyEvent(s entity.Session, ev machine.Event, now time.Time) (entity.Session, error) {
	next, _, err := machine.Transition(s, ev, now)
	return next, err
}

// launch は分類リクエストを非同期に発行します。同じセッションの実行中リクエストは取り消します。
func (u *diagnosisUsecase) launch(parent context.Context, sessionID string, seq uint64, filename string, data []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), u.timeout)

	u.mu.Lock()
	if prev, ok := u.inflight[sessionID]; ok {
		prev.cancel()
	}
	u.inflight[sessionID] = inflight{seq: seq, cancel: cancel}
	u.mu.Unlock()

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		defer u.finish(sessionID, seq, cancel)
		u.settle(ctx, sessionID, seq, filename, data)
	}()
}

// settle は分類を実行し、結果をイベントとしてセッションに適用します。
func (u *diagnosisUsecase) settle(ctx context.Context, sessionID string, seq uint64, filename string, data []byte) {
	outcome, err := u.classifier.Classify(ctx, filename, data)
	if err == nil && outcome == nil {
		err = errors.New("classifier returned no outcome")
	}

	var ev machine.Event
	if err != nil {
		err = entity.NewClassificationError(err)
		ev = machine.ClassificationFailed{Seq: seq, Cause: err}
	} else {
		ev = machine.ClassificationSucceeded{Seq: seq, Outcome: *outcome}
	}

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	_, applyErr := u.apply(settleCtx, sessionID, ev)
	switch {
	case errors.Is(applyErr, entity.ErrSupersededResponse):
		u.logger.Debug("discarding superseded classification response", "session_id", sessionID, "seq", seq)
	case errors.Is(applyErr, ErrSessionNotFound):
		u.logger.Debug("session gone before classification settled", "session_id", sessionID, "seq", seq)
	case applyErr != nil:
		u.logger.Error("failed to record classification outcome", "session_id", sessionID, "seq", seq, "error", applyErr)
	case err != nil:
		u.logger.Warn("classification failed", "session_id", sessionID, "seq", seq, "error", err)
	default:
		u.logger.Info("classification succeeded",
			"session_id", sessionID,
			"seq", seq,
			"class_name", outcome.Result.ClassName,
			"confidence", outcome.Result.Confidence,
			"detections", len(outcome.Detections),
		)
	}
}

func (u *diagnosisUsecase) finish(sessionID string, seq uint64, cancel context.CancelFunc) {
	cancel()
	u.mu.Lock()
	defer u.mu.Unlock()
	if cur, ok := u.inflight[sessionID]; ok && cur.seq == seq {
		delete(u.inflight, sessionID)
	}
}

func (u *diagnosisUsecase) cancelInflight(sessionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if cur, ok := u.inflight[sessionID]; ok {
		cur.cancel()
		delete(u.inflight, sessionID)
	}
}

func (u *diagnosisUsecase) forget(sessionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.coordinators, sessionID)
}

// forgetIfGone はセッションが期限切れなどで存在しない場合にCoordinatorを破棄します。
func (u *diagnosisUsecase) forgetIfGone(sessionID string, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		u.forget(sessionID)
	}
}

// sweepLocked は sessionTTL を超えて利用されていないCoordinatorを破棄します。u.mu を保持して呼び出します。
// Coordinatorはセッションの保存内容から再構築できるため、期限前のセッションを破棄しても表示は変わりません。
func (u *diagnosisUsecase) sweepLocked(now time.Time) {
	if now.Sub(u.lastSweep) < sweepInterval {
		return
	}
	u.lastSweep = now
	for id, e := range u.coordinators {
		if now.Sub(e.lastUsed) > u.sessionTTL {
			delete(u.coordinators, id)
		}
	}
}

// view はセッションのRender Coordinatorに最新の入力を渡し、オーバーレイ付きのビューを組み立てます。
func (u *diagnosisUsecase) view(s entity.Session) *entity.View {
	u.mu.Lock()
	defer u.mu.Unlock()

	now := u.now()
	u.sweepLocked(now)

	e, ok := u.coordinators[s.ID]
	if !ok {
		e = &coordinatorEntry{coordinator: render.NewCoordinator()}
		u.coordinators[s.ID] = e
	}
	e.lastUsed = now
	c := e.coordinator
	c.Observe(
		geometry.Size{Width: s.Viewport.Width, Height: s.Viewport.Height},
		s.Dimensions,
		detectionGeneration(s),
		s.Detections,
	)
	c.SetVisible(s.OverlayVisible)
	return &entity.View{Session: s, Overlay: c.Overlay()}
}

// detectionGeneration は検出結果の世代を返します。
// 検出結果はSucceeded到達時にのみ設定されるため、シーケンス番号と成功フラグで一意に決まります。
func detectionGeneration(s entity.Session) uint64 {
	gen := s.Seq << 1
	if s.Phase == entity.PhaseSucceeded {
		gen |= 1
	}
	return gen
}
