package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go-blog/internal/middleware"
	"go-blog/internal/service"

	"github.com/gin-gonic/gin"
)

type signupField struct {
	Name  string
	Label string
	Type  string
}

var signupFields = []signupField{
	{Name: "first_name", Label: "First name", Type: "text"},
	{Name: "last_name", Label: "Last name", Type: "text"},
	{Name: "username", Label: "Username", Type: "text"},
	{Name: "email", Label: "Email", Type: "email"},
	{Name: "password1", Label: "Password", Type: "password"},
	{Name: "password2", Label: "Password confirmation", Type: "password"},
}

const msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// 处理注册、登录和退出, 登录状态保存在 JWT cookie 中
type AuthHandler struct {
	authService *service.AuthService
	cookieName  string
	cookieTTL   time.Duration
}

func NewAuthHandler(authService *service.AuthService, cookieName string, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieName:  cookieName,
		cookieTTL:   cookieTTL,
	}
}

func (h *AuthHandler) SignupForm(c *gin.Context) {
	renderSignup(c, newForm())
}

// 注册成功后回到首页
func (h *AuthHandler) Signup(c *gin.Context) {
	in := service.SignupInput{
		FirstName: c.PostForm("first_name"),
		LastName:  c.PostForm("last_name"),
		Username:  c.PostForm("username"),
		Email:     c.PostForm("email"),
		Password1: c.PostForm("password1"),
		Password2: c.PostForm("password2"),
	}
	if _, err := h.authService.Register(c.Request.Context(), in); err != nil {
		ve, ok := service.AsValidationError(err)
		if !ok {
			handleError(c, err)
			return
		}
		form := newForm().
			with("first_name", in.FirstName).
			with("last_name", in.LastName).
			with("username", in.Username).
			with("email", in.Email)
		for field, msg := range ve.Fields {
			form.Errors[field] = msg
		}
		renderSignup(c, form)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	renderLogin(c, newForm(), c.Query("next"))
}

func (h *AuthHandler) Login(c *gin.Context) {
	in := service.LoginInput{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}
	next := c.PostForm("next")

	token, user, err := h.authService.Login(c.Request.Context(), in)
	if err != nil {
		form := newForm().with("username", in.Username)
		if ve, ok := service.AsValidationError(err); ok {
			for field, msg := range ve.Fields {
				form.Errors[field] = msg
			}
		} else if errors.Is(err, service.ErrInvalidCredentials) {
			form.Errors["__all__"] = msgBadCredentials
		} else {
			handleError(c, err)
			return
		}
		renderLogin(c, form, next)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(h.cookieTTL/time.Second), "/", "", false, true)
	c.Set(middleware.UserIDKey, user.ID)
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	// 当前请求之后按匿名渲染
	c.Set(middleware.IdentityKey, service.Anonymous)
	render(c, http.StatusOK, "logged_out.html", "Logged out", nil)
}

func renderSignup(c *gin.Context, form formView) {
	render(c, http.StatusOK, "signup.html", "Sign up", gin.H{"form": form, "fields": signupFields})
}

func renderLogin(c *gin.Context, form formView, next string) {
	render(c, http.StatusOK, "login.html", "Log in", gin.H{"form": form, "next": next})
}

// 只允许站内跳转
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
