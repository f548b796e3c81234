package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navbryce/next-post-be/util"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type healthRoutes struct {
	db Pinger
}

func AddHealthCheckRoutes(group *gin.RouterGroup, db Pinger) {
	routes := healthRoutes{db}
	health := group.Group("/health")
	health.GET("", util.HandlerWrapper(routes.aliveCheck, &util.HandlerOpts{}))
}

func (hr *healthRoutes) aliveCheck(c *gin.Context) (interface{}, *util.HTTPError) {
	if err := hr.db.PingContext(c); err != nil {
		return nil, &util.HTTPError{
			Status:  http.StatusServiceUnavailable,
			Message: "database unreachable",
			Cause:   err,
		}
	}
	return nil, nil
}
