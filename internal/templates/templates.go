// Package templates 内嵌所有页面模板
package templates

import "embed"

//go:embed *.html
var FS embed.FS
