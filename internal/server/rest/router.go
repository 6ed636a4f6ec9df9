// Package rest is the HTTP transport of the service built on gin.
package rest

import (
	"net/http"

	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Resolver IdentityResolver
	Contents ContentManager
	Accounts AccountManager
	Calendar CalendarScheduler
}

func NewRouter(deps Deps, logger logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(logger.With("module", "http")), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", Authenticate(deps.Resolver))
	NewContentHandler(models.KindPost, deps.Contents).Register(v1.Group("/posts"))
	NewContentHandler(models.KindPet, deps.Contents).Register(v1.Group("/pets"))
	NewCalendarHandler(deps.Calendar).Register(v1.Group("/pets/:id/calendar"))
	NewAccountHandler(deps.Accounts).Register(v1.Group("/accounts"))

	return r
}
