package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/vishalpmittal/dratavlibrary/internal/config"
	"github.com/vishalpmittal/dratavlibrary/internal/docs"
	"github.com/vishalpmittal/dratavlibrary/internal/handler"
	"github.com/vishalpmittal/dratavlibrary/internal/middleware"
	"github.com/vishalpmittal/dratavlibrary/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RouterOptions struct {
	// Prefix is the single path segment every catalog route is mounted under.
	Prefix    string
	RateLimit config.RateLimit
	Version   string
	StartTime time.Time
}

// BasePath turns a configured prefix into the mount path, "" meaning root.
func BasePath(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

func NewRouter(database *gorm.DB, log *zap.Logger, opts RouterOptions) (*gin.Engine, error) {
	sqlDB, err := database.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}

	e := gin.New()

	if err := e.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
	}); err != nil {
		return nil, errors.Wrap(err, "set trusted proxies")
	}

	e.Use(middleware.RequestLogger(log.Named("http")))
	e.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered", zap.Any("panic", recovered), zap.String("uri", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "internal server error",
			"code":  "INTERNAL",
		})
	}))
	if opts.RateLimit.RPS > 0 {
		e.Use(middleware.NewRateLimiter(opts.RateLimit.RPS, opts.RateLimit.Burst).Handler())
	}

	healthHandler := handler.NewHealthHandler(sqlDB, log, opts.StartTime, opts.Version)
	healthHandler.RegisterRoutes(e)

	base := BasePath(opts.Prefix)
	docs.SwaggerInfo.BasePath = base
	if docs.SwaggerInfo.BasePath == "" {
		docs.SwaggerInfo.BasePath = "/"
	}

	authorRepo := repository.NewGormAuthorRepository(database)
	bookRepo := repository.NewGormBookRepository(database)

	api := e.Group(base)
	{
		authorHandler := handler.NewAuthorHandler(authorRepo, log)
		authorHandler.RegisterRoutes(api)

		bookHandler := handler.NewBookHandler(bookRepo, authorRepo, log)
		bookHandler.RegisterRoutes(api)
	}

	e.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return e, nil
}
