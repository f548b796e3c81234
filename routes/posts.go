package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navbryce/next-post-be/app"
	"github.com/navbryce/next-post-be/middleware"
	"github.com/navbryce/next-post-be/util"
)

type postRoutes struct {
	lifecycle *app.Lifecycle
}

func AddPostRoutes(group *gin.RouterGroup, lifecycle *app.Lifecycle, resolver middleware.CallerResolver) {
	routes := postRoutes{lifecycle}
	public := group.Group("/posts")
	public.GET("", util.HandlerWrapper(routes.getPosts, &util.HandlerOpts{}))
	public.GET("/:id", util.HandlerWrapper(routes.getPostById, &util.HandlerOpts{}))

	owned := group.Group("/posts", middleware.Auth(resolver, &middleware.AuthConfig{}))
	owned.GET("/mine", util.HandlerWrapper(routes.getMyPosts, &util.HandlerOpts{}))
	owned.PUT("/:id", util.HandlerWrapper(routes.editPost, &util.HandlerOpts{}))
	owned.DELETE("/:id", util.HandlerWrapper(routes.deletePost, &util.HandlerOpts{}))
}

func pageParams(c *gin.Context) (*app.PostCursor, int, *util.HTTPError) {
	limit, httpErr := util.ParseLimit(c.Query("limit"))
	if httpErr != nil {
		return nil, 0, httpErr
	}
	cursor, err := app.ParseCursor(c.Query("cursor"))
	if err != nil {
		return nil, 0, buildAppHTTPErr(err)
	}
	return cursor, limit, nil
}

func (pr *postRoutes) getPosts(c *gin.Context) (interface{}, *util.HTTPError) {
	cursor, limit, httpErr := pageParams(c)
	if httpErr != nil {
		return nil, httpErr
	}
	page, err := pr.lifecycle.ListPublic(c, cursor, limit)
	if err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return page, nil
}

func (pr *postRoutes) getMyPosts(c *gin.Context) (interface{}, *util.HTTPError) {
	cursor, limit, httpErr := pageParams(c)
	if httpErr != nil {
		return nil, httpErr
	}
	page, err := pr.lifecycle.ListMine(c, middleware.GetCaller(c), cursor, limit)
	if err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return page, nil
}

// getPostById is the public detail page. Pending posts read as missing.
func (pr *postRoutes) getPostById(c *gin.Context) (interface{}, *util.HTTPError) {
	id, httpErr := util.ParseId(c.Param("id"))
	if httpErr != nil {
		return nil, httpErr
	}
	post, err := pr.lifecycle.GetPublic(c, id)
	if err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return post, nil
}

func (pr *postRoutes) editPost(c *gin.Context) (interface{}, *util.HTTPError) {
	id, httpErr := util.ParseId(c.Param("id"))
	if httpErr != nil {
		return nil, httpErr
	}
	form, asset, httpErr := bindPostForm(c)
	if httpErr != nil {
		return nil, httpErr
	}
	post, err := pr.lifecycle.Edit(c, middleware.GetCaller(c), id, &app.EditInput{
		Title:       form.Title,
		Description: form.Description,
		MainContent: form.MainContent,
		Asset:       asset,
	})
	if err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return post, nil
}

func (pr *postRoutes) deletePost(c *gin.Context) (interface{}, *util.HTTPError) {
	id, httpErr := util.ParseId(c.Param("id"))
	if httpErr != nil {
		return nil, httpErr
	}
	if err := pr.lifecycle.Delete(c, middleware.GetCaller(c), id); err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return gin.H{"id": id}, nil
}

type apiRoutes struct {
	lifecycle *app.Lifecycle
}

// AddAPIRoutes serves the submission endpoint used by the web client. Its
// envelope is {message, data} / {message, error} rather than {success, ...}.
func AddAPIRoutes(group *gin.RouterGroup, lifecycle *app.Lifecycle, resolver middleware.CallerResolver) {
	routes := apiRoutes{lifecycle}
	api := group.Group("/api", middleware.Auth(resolver, &middleware.AuthConfig{}))
	api.POST("/posts", routes.createPost)
}

func (ar *apiRoutes) createPost(c *gin.Context) {
	form, asset, httpErr := bindPostForm(c)
	if httpErr != nil {
		c.JSON(httpErr.Status, gin.H{"message": httpErr.Message})
		return
	}
	if form.Title == "" || form.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title and description are required"})
		return
	}
	post, err := ar.lifecycle.Submit(c, middleware.GetCaller(c), &app.SubmitInput{
		Title:       form.Title,
		Description: form.Description,
		MainContent: form.MainContent,
		AuthorEmail: form.AuthorEmail,
		Asset:       asset,
	})
	if err != nil {
		httpErr := buildAppHTTPErr(err)
		if httpErr.Status >= http.StatusInternalServerError {
			_ = c.Error(err)
			c.JSON(httpErr.Status, gin.H{"message": "Error creating post", "error": httpErr.Message})
			return
		}
		c.JSON(httpErr.Status, gin.H{"message": httpErr.Message})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully!", "data": post})
}
