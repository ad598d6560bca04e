package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"mri_diagnosis/internal/feature/diagnosis/adapters/inference/dto"
	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
)

// Client は推論サービスに画像をマルチパートで送信し、分類結果を取得するClassifier実装です。
// リトライは行いません。
type Client struct {
	cfg    Config
	client *http.Client
}

// ClientがClassifierを実装していることをコンパイル時に検証します。
var _ usecase.Classifier = (*Client)(nil)

// NewClient は指定された設定とHTTPクライアントでClientの新しいインスタンスを生成します。
func NewClient(cfg Config, client *http.Client) *Client {
	if cfg.FileField == "" {
		cfg.FileField = DefaultFileField
	}
	return &Client{cfg: cfg, client: client}
}

// Classify は画像を送信し、正規化済みの分類結果を返します。
// 送信失敗・非成功ステータス・不正なペイロード・タイムアウトはすべて entity.ClassificationError になります。
func (c *Client) Classify(ctx context.Context, filename string, data []byte) (*entity.ClassificationOutcome, error) {
	outcome, err := c.classify(ctx, filename, data)
	if err != nil {
		return nil, entity.NewClassificationError(err)
	}
	return outcome, nil
}

func (c *Client) classify(ctx context.Context, filename string, data []byte) (*entity.ClassificationOutcome, error) {
	body, contentType, err := c.encode(filename, data)
	if err != nil {
		return nil, err
	}

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	// リクエストを実行
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read inference response: %w", err)
	}
	if len(raw) > MaxResponseBytes {
		return nil, fmt.Errorf("inference response exceeds %d bytes", MaxResponseBytes)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("inference http %d", res.StatusCode)
	}

	// レスポンスをDTOに変換
	var resp *dto.ClassifyResponse
	mediaType, _, _ := mime.ParseMediaType(res.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		resp, err = dto.FromLabel(string(raw))
	} else {
		resp, err = dto.Parse(raw)
	}
	if err != nil {
		return nil, err
	}

	return Normalize(resp, c.cfg.Normalizer)
}

// encode は画像をマルチパートのリクエストボディに書き込みます。
func (c *Client) encode(filename string, data []byte) (io.Reader, string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "image"
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, c.cfg.FileField, name))
	h.Set("Content-Type", mimetype.Detect(data).String())

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}
