package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	diagnosishandler "mri_diagnosis/internal/feature/diagnosis/transport/handler"
	"mri_diagnosis/internal/platform/http/handler"
	jwtmw "mri_diagnosis/internal/platform/jwt"
)

// Config は CORS と認証の設定です。
type Config struct {
	JWTSecret    string
	AllowOrigins []string // 空の場合はすべてのオリジンを許可
	ReadyChecks  map[string]handler.Check
}

func NewRouter(cfg Config, diagnosis *diagnosishandler.DiagnosisHandler) *gin.Engine {
	r := gin.Default()

	// ブラウザから画像アップロードとトークン付きリクエストを受け付ける
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	r.Use(cors.New(corsCfg))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.OPTIONS("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(cfg.ReadyChecks))
	// セッション作成（トークン発行）
	r.POST("/v1/diagnosis/sessions", diagnosis.CreateSession)

	// セッショントークン必須のルート
	auth := r.Group("/v1/diagnosis")
	auth.Use(jwtmw.SessionRequired(cfg.JWTSecret))
	{
		auth.GET("", diagnosis.GetView)
		auth.POST("/image", diagnosis.UploadImage)
		auth.PUT("/viewport", diagnosis.ResizeViewport)
		auth.POST("/overlay/toggle", diagnosis.ToggleOverlay)
		auth.POST("/report", diagnosis.ExpandReport)
		auth.POST("/reset", diagnosis.Reset)
		auth.DELETE("/session", diagnosis.EndSession)
	}

	return r
}
