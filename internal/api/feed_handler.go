package api

import (
	"net/http"

	"go-blog/internal/middleware"
	"go-blog/internal/service"

	"github.com/gin-gonic/gin"
)

// 帖子流和帖子详情页
type FeedHandler struct {
	feeds *service.FeedService
}

func NewFeedHandler(feeds *service.FeedService) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

func (h *FeedHandler) Index(c *gin.Context) {
	page, err := h.feeds.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		handleError(c, err)
		return
	}
	render(c, http.StatusOK, "index.html", "Latest updates on the site", gin.H{"page_obj": page})
}

func (h *FeedHandler) GroupPosts(c *gin.Context) {
	feed, err := h.feeds.GroupFeed(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		handleError(c, err)
		return
	}
	render(c, http.StatusOK, "group_list.html", "Group "+feed.Group.Title, gin.H{
		"group":    feed.Group,
		"page_obj": feed.Page,
	})
}

func (h *FeedHandler) Profile(c *gin.Context) {
	viewer := middleware.CurrentIdentity(c)
	feed, err := h.feeds.ProfileFeed(c.Request.Context(), viewer, c.Param("username"), c.Query("page"))
	if err != nil {
		handleError(c, err)
		return
	}
	render(c, http.StatusOK, "profile.html", "Profile of "+feed.Author.DisplayName(), gin.H{
		"author":    feed.Author,
		"count":     feed.PostCount,
		"page_obj":  feed.Page,
		"following": feed.IsFollowing,
	})
}

func (h *FeedHandler) PostDetail(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		renderNotFound(c)
		return
	}
	detail, err := h.feeds.PostDetail(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	render(c, http.StatusOK, "post_detail.html", "Post "+detail.Post.String(), gin.H{
		"post":     detail.Post,
		"count":    detail.AuthorPostCount,
		"comments": detail.Comments,
		"form":     newForm(),
	})
}

func (h *FeedHandler) FollowIndex(c *gin.Context) {
	page, err := h.feeds.FollowFeed(c.Request.Context(), middleware.CurrentIdentity(c), c.Query("page"))
	if err != nil {
		handleError(c, err)
		return
	}
	render(c, http.StatusOK, "follow.html", "Subscriptions", gin.H{"page_obj": page})
}
