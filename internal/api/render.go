package api

import (
	"html/template"
	"strings"
	"time"

	"go-blog/internal/middleware"
	"go-blog/internal/storage"
	"go-blog/internal/templates"

	"github.com/gin-gonic/gin"
)

// NewTemplates 解析内嵌模板, 模板名为文件名 (index.html 等)
func NewTemplates(images storage.Store) (*template.Template, error) {
	funcs := template.FuncMap{
		"imageURL": func(key string) string {
			if key == "" || images == nil {
				return ""
			}
			return images.URL(key)
		},
		"date": func(t time.Time) string {
			return t.Format("2 January 2006")
		},
		"linebreaks": linebreaks,
		"year": func() int {
			return time.Now().Year()
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templates.FS, "*.html")
}

// 转义后把换行替换成 <br>
func linebreaks(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// formView 是模板中的表单: 已提交的值和字段错误
type formView struct {
	Values map[string]string
	Errors map[string]string
}

func newForm() formView {
	return formView{Values: map[string]string{}, Errors: map[string]string{}}
}

func (f formView) with(field, value string) formView {
	f.Values[field] = value
	return f
}

func render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["user"] = middleware.CurrentIdentity(c)
	c.HTML(status, name, data)
}
