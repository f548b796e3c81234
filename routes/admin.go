package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/navbryce/next-post-be/controllers"
	"github.com/navbryce/next-post-be/middleware"
	"github.com/navbryce/next-post-be/util"
)

type adminRoutes struct {
	controller *controllers.ModerationController
}

func AddAdminRoutes(group *gin.RouterGroup, controller *controllers.ModerationController, resolver middleware.CallerResolver) {
	routes := adminRoutes{controller}
	admin := group.Group("/admin/posts", middleware.Auth(resolver, &middleware.AuthConfig{AdminRequired: true}))
	admin.GET("", util.HandlerWrapper(routes.getQueue, &util.HandlerOpts{}))
	admin.GET("/:id", util.HandlerWrapper(routes.getPendingPost, &util.HandlerOpts{}))
	admin.POST("/:id/approve", util.HandlerWrapper(routes.approve, &util.HandlerOpts{}))
	admin.POST("/:id/decline", util.HandlerWrapper(routes.decline, &util.HandlerOpts{}))
}

func (ar *adminRoutes) getQueue(c *gin.Context) (interface{}, *util.HTTPError) {
	cursor, limit, httpErr := pageParams(c)
	if httpErr != nil {
		return nil, httpErr
	}
	page, err := ar.controller.Queue(c, middleware.GetCaller(c), cursor, limit)
	if err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return page, nil
}

func (ar *adminRoutes) getPendingPost(c *gin.Context) (interface{}, *util.HTTPError) {
	id, httpErr := util.ParseId(c.Param("id"))
	if httpErr != nil {
		return nil, httpErr
	}
	item, err := ar.controller.Review(c, middleware.GetCaller(c), id)
	if err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return item, nil
}

func (ar *adminRoutes) approve(c *gin.Context) (interface{}, *util.HTTPError) {
	id, httpErr := util.ParseId(c.Param("id"))
	if httpErr != nil {
		return nil, httpErr
	}
	item, err := ar.controller.Approve(c, middleware.GetCaller(c), id)
	if err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return item, nil
}

func (ar *adminRoutes) decline(c *gin.Context) (interface{}, *util.HTTPError) {
	id, httpErr := util.ParseId(c.Param("id"))
	if httpErr != nil {
		return nil, httpErr
	}
	if err := ar.controller.Decline(c, middleware.GetCaller(c), id); err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return gin.H{"id": id}, nil
}
