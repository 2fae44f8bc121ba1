package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"go-blog/internal/middleware"
	"go-blog/internal/model"
	"go-blog/internal/service"
	"go-blog/internal/storage"

	"github.com/gin-gonic/gin"
)

// 发帖、编辑和评论
type PostHandler struct {
	posts   *service.PostService
	feeds   *service.FeedService
	maxSize int64
}

func NewPostHandler(posts *service.PostService, feeds *service.FeedService, maxUploadSize int64) *PostHandler {
	return &PostHandler{posts: posts, feeds: feeds, maxSize: maxUploadSize}
}

func (h *PostHandler) CreateForm(c *gin.Context) {
	h.renderForm(c, newForm(), false, 0)
}

func (h *PostHandler) Create(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	form := newForm().with("text", c.PostForm("text")).with("group", c.PostForm("group"))

	upload, closeUpload, err := h.readUpload(c)
	if err != nil {
		h.renderFormError(c, form, err, false, 0)
		return
	}
	defer closeUpload()

	in := service.CreatePostInput{
		Text:    c.PostForm("text"),
		GroupID: parseGroupID(c.PostForm("group")),
		Image:   upload,
	}
	if _, err := h.posts.CreatePost(c.Request.Context(), id, in); err != nil {
		h.renderFormError(c, form, err, false, 0)
		return
	}
	c.Redirect(http.StatusFound, profileURL(id.Username))
}

func (h *PostHandler) EditForm(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		renderNotFound(c)
		return
	}
	post, err := h.posts.PostForEdit(c.Request.Context(), middleware.CurrentIdentity(c), postID)
	if errors.Is(err, service.ErrRedirectToDetail) {
		c.Redirect(http.StatusFound, postURL(postID))
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	h.renderForm(c, postForm(post), true, postID)
}

// 只修改提交了的字段; 提交空的 group 表示移出分组
func (h *PostHandler) Edit(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		renderNotFound(c)
		return
	}
	form := newForm()
	var in service.EditPostInput
	if text, ok := c.GetPostForm("text"); ok {
		in.Text = &text
		form.with("text", text)
	}
	if raw, ok := c.GetPostForm("group"); ok {
		form.with("group", raw)
		if raw == "" {
			in.ClearGroup = true
		} else {
			in.GroupID = parseGroupID(raw)
		}
	}

	// 先确认编辑权限, 非作者不读取上传内容
	id := middleware.CurrentIdentity(c)
	if _, err := h.posts.PostForEdit(c.Request.Context(), id, postID); err != nil {
		h.renderFormError(c, form, err, true, postID)
		return
	}

	upload, closeUpload, err := h.readUpload(c)
	if err != nil {
		h.renderFormError(c, form, err, true, postID)
		return
	}
	defer closeUpload()
	in.Image = upload

	_, err = h.posts.EditPost(c.Request.Context(), id, postID, in)
	if err != nil && !errors.Is(err, service.ErrRedirectToDetail) {
		h.renderFormError(c, form, err, true, postID)
		return
	}
	c.Redirect(http.StatusFound, postURL(postID))
}

// 无论评论是否有效都回到帖子详情
func (h *PostHandler) AddComment(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		renderNotFound(c)
		return
	}
	in := service.CommentInput{Text: c.PostForm("text")}
	_, err := h.posts.AddComment(c.Request.Context(), middleware.CurrentIdentity(c), postID, in)
	if _, invalid := service.AsValidationError(err); err != nil && !invalid {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(postID))
}

// 校验失败时也返回 200, 表单带上已提交的值和错误
func (h *PostHandler) renderForm(c *gin.Context, form formView, isEdit bool, postID uint) {
	groups, err := h.feeds.Groups(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	title := "New post"
	if isEdit {
		title = "Edit post"
	}
	render(c, http.StatusOK, "create_post.html", title, gin.H{
		"form":    form,
		"is_edit": isEdit,
		"post_id": postID,
		"groups":  groups,
	})
}

// 校验错误重新渲染表单, 其余错误交给 handleError
func (h *PostHandler) renderFormError(c *gin.Context, form formView, err error, isEdit bool, postID uint) {
	if errors.Is(err, service.ErrRedirectToDetail) {
		c.Redirect(http.StatusFound, postURL(postID))
		return
	}
	ve, ok := service.AsValidationError(err)
	if !ok {
		handleError(c, err)
		return
	}
	for field, msg := range ve.Fields {
		form.Errors[field] = msg
	}
	h.renderForm(c, form, isEdit, postID)
}

// 没有上传文件时返回 nil
func (h *PostHandler) readUpload(c *gin.Context) (*storage.Upload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, fmt.Errorf("read upload: %w", err)
	}
	if fh.Size == 0 && fh.Filename == "" {
		return nil, noop, nil
	}
	if h.maxSize > 0 && fh.Size > h.maxSize {
		ve := &service.ValidationError{}
		ve.Add("image", fmt.Sprintf("Ensure this file is at most %d bytes (it is %d).", h.maxSize, fh.Size))
		return nil, noop, ve
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*storage.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("open upload: %w", err)
	}
	upload := &storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Reader:      f,
	}
	return upload, func() { _ = f.Close() }, nil
}

// 非数字的分组 id 按不存在的分组处理, 由服务层报校验错误
func parseGroupID(raw string) *uint {
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		n = 0
	}
	id := uint(n)
	return &id
}

func postForm(post *model.Post) formView {
	form := newForm().with("text", post.Text)
	if post.GroupID != nil {
		form.with("group", strconv.FormatUint(uint64(*post.GroupID), 10))
	}
	return form
}
