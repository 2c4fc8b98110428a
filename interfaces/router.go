// Package interfaces exposes the job board over HTTP: a JSON API under
// /api and server-rendered pages under /jobs.
package interfaces

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"jobboard/config"
	"jobboard/service"
)

// Services are the operations the handlers call.
type Services struct {
	Jobs         *service.JobService
	Applications *service.ApplicationService
	Categories   *service.CategoryService
	Users        *service.UserService
}

// NewRouter builds the gin engine with both surfaces mounted.
func NewRouter(svc Services, cfg *config.Config, log *zap.SugaredLogger) (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(RequestID(), Recovery(log), AccessLog(log))

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api", APIAuth(svc.Users, log))
	NewHTTPHandler(api, svc, NewActorLimiter(cfg.Server.ApplyRatePerMinute), log)

	web := engine.Group("/", PageAuth(svc.Users, log))
	NewWebHandler(web, svc, cfg.Web, log)

	return engine, nil
}

// WithCORS allows browser clients from origins to call h. No origins
// leaves h unchanged.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	}).Handler(h)
}
