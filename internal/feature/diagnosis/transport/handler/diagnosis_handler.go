// Package handler はdiagnosisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/domain/machine"
	"mri_diagnosis/internal/feature/diagnosis/transport/http/dto"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
	jwtmw "mri_diagnosis/internal/platform/jwt"
)

// multipartOverhead はマルチパートの境界やヘッダー分としてボディ上限に上乗せするバイト数です。
const multipartOverhead = 1 << 20

// DiagnosisUsecase は診断セッション操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type DiagnosisUsecase interface {
	CreateSession(ctx context.Context) (*entity.Session, error)
	SelectFile(ctx context.Context, sessionID, filename string, data []byte) (*entity.View, error)
	View(ctx context.Context, sessionID string) (*entity.View, error)
	ResizeViewport(ctx context.Context, sessionID string, width, height float64) (*entity.View, error)
	ToggleOverlay(ctx context.Context, sessionID string) (*entity.View, error)
	ExpandReport(ctx context.Context, sessionID string) (*entity.Report, error)
	Reset(ctx context.Context, sessionID string) (*entity.View, error)
	EndSession(ctx context.Context, sessionID string) error
}

// TokenGenerator はセッショントークンの発行インターフェースです。
type TokenGenerator interface {
	GenerateToken(sessionID string) (string, time.Time, error)
}

// DiagnosisHandler は診断セッションのHTTPリクエストを処理します。
type DiagnosisHandler struct {
	uc     DiagnosisUsecase
	tokens TokenGenerator
}

// NewDiagnosisHandler はDiagnosisHandlerの新しいインスタンスを生成します。
func NewDiagnosisHandler(uc DiagnosisUsecase, tokens TokenGenerator) *DiagnosisHandler {
	return &DiagnosisHandler{uc: uc, tokens: tokens}
}

// CreateSession は新しい診断セッションを作成し、セッショントークンを返します。
//
// エンドポイント: POST /v1/diagnosis/sessions
func (h *DiagnosisHandler) CreateSession(c *gin.Context) {
	s, err := h.uc.CreateSession(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(s.ID)
	if err != nil {
		slog.Error("セッショントークンの発行に失敗", "session_id", s.ID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "セッションの作成に失敗しました"})
		return
	}

	c.JSON(http.StatusCreated, dto.SessionResponse{
		SessionID: s.ID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		View:      dto.NewViewResponse(&entity.View{Session: *s}),
	})
}

// UploadImage は画像を受け付けて分類を開始します。分類結果は GET /v1/diagnosis で取得します。
//
// エンドポイント: POST /v1/diagnosis/image
// Content-Type: multipart/form-data
// フィールド: image（画像ファイル、最大10MB）
func (h *DiagnosisHandler) UploadImage(c *gin.Context) {
	sessionID, ok := sessionFrom(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, usecase.MaxImageSize+multipartOverhead)
	file, err := c.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(c, usecase.ErrImageTooLarge)
			return
		}
		slog.Warn("画像ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "画像ファイルが必要です"})
		return
	}
	if file.Size > usecase.MaxImageSize {
		writeError(c, usecase.ErrImageTooLarge)
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("画像ファイルのオープンに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, usecase.MaxImageSize+1))
	if err != nil {
		slog.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "画像の読み込みに失敗しました"})
		return
	}

	view, err := h.uc.SelectFile(c.Request.Context(), sessionID, file.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewViewResponse(view))
}

// GetView は現在のフェーズ、プレビュー、結果、オーバーレイを返します。
//
// エンドポイント: GET /v1/diagnosis
func (h *DiagnosisHandler) GetView(c *gin.Context) {
	sessionID, ok := sessionFrom(c)
	if !ok {
		return
	}
	h.respondView(c, func(ctx context.Context) (*entity.View, error) {
		return h.uc.View(ctx, sessionID)
	})
}

// ResizeViewport は描画コンテナの寸法を更新し、写像後のオーバーレイを返します。
//
// エンドポイント: PUT /v1/diagnosis/viewport
func (h *DiagnosisHandler) ResizeViewport(c *gin.Context) {
	sessionID, ok := sessionFrom(c)
	if !ok {
		return
	}

	var req dto.ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("表示領域リクエストのバリデーションに失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "表示領域の幅と高さ（0以上）が必要です"})
		return
	}

	h.respondView(c, func(ctx context.Context) (*entity.View, error) {
		return h.uc.ResizeViewport(ctx, sessionID, *req.Width, *req.Height)
	})
}

// ToggleOverlay は検出オーバーレイの表示を切り替えます。
//
// エンドポイント: POST /v1/diagnosis/overlay/toggle
func (h *DiagnosisHandler) ToggleOverlay(c *gin.Context) {
	sessionID, ok := sessionFrom(c)
	if !ok {
		return
	}
	h.respondView(c, func(ctx context.Context) (*entity.View, error) {
		return h.uc.ToggleOverlay(ctx, sessionID)
	})
}

// ExpandReport は詳細レポートを返します。分類が成功していない場合は409を返します。
//
// エンドポイント: POST /v1/diagnosis/report
func (h *DiagnosisHandler) ExpandReport(c *gin.Context) {
	sessionID, ok := sessionFrom(c)
	if !ok {
		return
	}

	rep, err := h.uc.ExpandReport(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewReportResponse(rep))
}

// Reset はセッションを初期状態に戻します。
//
// エンドポイント: POST /v1/diagnosis/reset
func (h *DiagnosisHandler) Reset(c *gin.Context) {
	sessionID, ok := sessionFrom(c)
	if !ok {
		return
	}
	h.respondView(c, func(ctx context.Context) (*entity.View, error) {
		return h.uc.Reset(ctx, sessionID)
	})
}

// EndSession はセッションを破棄します。
//
// エンドポイント: DELETE /v1/diagnosis/session
func (h *DiagnosisHandler) EndSession(c *gin.Context) {
	sessionID, ok := sessionFrom(c)
	if !ok {
		return
	}
	if err := h.uc.EndSession(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DiagnosisHandler) respondView(c *gin.Context, fn func(ctx context.Context) (*entity.View, error)) {
	view, err := fn(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewViewResponse(view))
}

// sessionFrom は認証ミドルウェアが設定したセッションIDを取り出します。
func sessionFrom(c *gin.Context) (string, bool) {
	id, ok := jwtmw.SessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "セッショントークンがありません"})
		return "", false
	}
	return id, true
}

// writeError はエラーをHTTPステータスとユーザー向けメッセージに変換します。
// 上流の原因はログにのみ出力します。
func writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "サーバー内部でエラーが発生しました"
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		status, msg = http.StatusNotFound, "セッションが見つかりません。新しいセッションを作成してください"
	case errors.Is(err, usecase.ErrEmptyImage):
		status, msg = http.StatusBadRequest, "画像ファイルが空です"
	case errors.Is(err, usecase.ErrImageTooLarge):
		status, msg = http.StatusRequestEntityTooLarge, "画像サイズは10MB以下にしてください"
	case errors.Is(err, usecase.ErrUnsupportedImage):
		status, msg = http.StatusUnsupportedMediaType, "対応していない画像形式です"
	case errors.Is(err, usecase.ErrReportUnavailable):
		status, msg = http.StatusConflict, "診断結果が確定していないためレポートを表示できません"
	case errors.Is(err, machine.ErrInvalidViewport):
		status, msg = http.StatusBadRequest, "表示領域の寸法が不正です"
	case errors.Is(err, entity.ErrInvalidTransition):
		status, msg = http.StatusConflict, "現在の状態ではこの操作はできません"
	}

	if status >= http.StatusInternalServerError {
		slog.Error("診断リクエストの処理に失敗", "path", c.FullPath(), "error", err)
	} else {
		slog.Warn("診断リクエストを拒否", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, dto.ErrorResponse{Error: msg})
}
