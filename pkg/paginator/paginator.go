// Package paginator 把有序结果集切成固定大小的页。
//
// 页码处理规则: 缺失、非整数或小于 1 的页码按第 1 页处理,
// 超过最后一页的页码落到最后一页; 空结果集也有一页 (空页)。
package paginator

import (
	"strconv"
	"strings"
)

// 每页条数
const PageSize = 10

type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
	PageSize int
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p Page[T]) HasOtherPages() bool { return p.HasPrevious() || p.HasNext() }

func (p Page[T]) PreviousPageNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

func (p Page[T]) NextPageNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

// 1..NumPages, 模板渲染页码链接用
func (p Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// 本页第一条的序号 (从1开始), 空页为0
func (p Page[T]) StartIndex() int64 {
	if p.Count == 0 {
		return 0
	}
	return int64(p.Number-1)*int64(p.PageSize) + 1
}

// Window 描述某一页在完整结果集中的位置, 仓库层用它生成 OFFSET/LIMIT
type Window struct {
	Number   int
	NumPages int
	PageSize int
	Offset   int
	Limit    int
}

// 解析原始页码, 无效值返回1
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func Resolve(count int64, pageSize int, raw string) Window {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	if count < 0 {
		count = 0
	}
	numPages := int((count + int64(pageSize) - 1) / int64(pageSize))
	if numPages < 1 {
		numPages = 1
	}

	number := ParsePage(raw)
	if number > numPages {
		number = numPages
	}

	return Window{
		Number:   number,
		NumPages: numPages,
		PageSize: pageSize,
		Offset:   (number - 1) * pageSize,
		Limit:    pageSize,
	}
}

// 用已经按窗口取出的数据构造页
func New[T any](items []T, w Window, count int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Number:   w.Number,
		NumPages: w.NumPages,
		Count:    count,
		PageSize: w.PageSize,
	}
}

// 在内存中对完整序列分页
func Paginate[T any](items []T, pageSize int, raw string) Page[T] {
	count := int64(len(items))
	w := Resolve(count, pageSize, raw)

	start := w.Offset
	end := start + w.Limit
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return New(items[start:end:end], w, count)
}
