// Package servicetest 是仓库接口的内存实现, 只用于测试, 生产代码不要导入。
// 服务层和 HTTP 层测试用它代替 MySQL, 排序、唯一约束和级联规则与表结构一致。
package servicetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go-blog/internal/model"
	"go-blog/internal/repository"

	"gorm.io/gorm"
)

var ErrDuplicate = errors.New("duplicate key")

type DB struct {
	mu       sync.Mutex
	nextID   uint
	clock    time.Time
	users    map[uint]model.User
	groups   map[uint]model.Group
	posts    map[uint]model.Post
	comments map[uint]model.Comment
	follows  map[uint]model.Follow
}

func New() *DB {
	return &DB{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    make(map[uint]model.User),
		groups:   make(map[uint]model.Group),
		posts:    make(map[uint]model.Post),
		comments: make(map[uint]model.Comment),
		follows:  make(map[uint]model.Follow),
	}
}

// 每次写入时间前进一秒, 排序稳定可预测
func (d *DB) tick() time.Time {
	d.clock = d.clock.Add(time.Second)
	return d.clock
}

func (d *DB) id() uint {
	d.nextID++
	return d.nextID
}

func (d *DB) Users() *Users       { return &Users{d} }
func (d *DB) Groups() *Groups     { return &Groups{d} }
func (d *DB) Posts() *Posts       { return &Posts{d} }
func (d *DB) Comments() *Comments { return &Comments{d} }
func (d *DB) Follows() *Follows   { return &Follows{d} }

type Users struct{ d *DB }

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, existing := range s.d.users {
		if existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	u.ID = s.d.id()
	u.CreatedAt = s.d.tick()
	u.UpdatedAt = u.CreatedAt
	s.d.users[u.ID] = *u
	return nil
}

func (s *Users) find(match func(model.User) bool) *model.User {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, u := range s.d.users {
		if match(u) {
			cp := u
			return &cp
		}
	}
	return nil
}

func (s *Users) FindByID(_ context.Context, id uint) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.ID == id }), nil
}

func (s *Users) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.Username == username }), nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u model.User) bool { return u.Email == email }), nil
}

// 级联删除帖子、评论和关注关系
func (s *Users) Delete(_ context.Context, id uint) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	delete(s.d.users, id)
	for pid, p := range s.d.posts {
		if p.AuthorID == id {
			s.d.deletePostLocked(pid)
		}
	}
	for cid, c := range s.d.comments {
		if c.AuthorID == id {
			delete(s.d.comments, cid)
		}
	}
	for fid, f := range s.d.follows {
		if f.UserID == id || f.AuthorID == id {
			delete(s.d.follows, fid)
		}
	}
	return nil
}

type Groups struct{ d *DB }

func (s *Groups) Create(_ context.Context, g *model.Group) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, existing := range s.d.groups {
		if existing.Slug == g.Slug {
			return ErrDuplicate
		}
	}
	g.ID = s.d.id()
	g.CreatedAt = s.d.tick()
	s.d.groups[g.ID] = *g
	return nil
}

func (s *Groups) FindByID(_ context.Context, id uint) (*model.Group, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	g, ok := s.d.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *Groups) FindBySlug(_ context.Context, slug string) (*model.Group, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, g := range s.d.groups {
		if g.Slug == slug {
			cp := g
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Groups) List(_ context.Context) ([]model.Group, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := make([]model.Group, 0, len(s.d.groups))
	for _, g := range s.d.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// 帖子的 group_id 置空
func (s *Groups) Delete(_ context.Context, id uint) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	delete(s.d.groups, id)
	for pid, p := range s.d.posts {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
			s.d.posts[pid] = p
		}
	}
	return nil
}

type Posts struct{ d *DB }

func (s *Posts) Create(_ context.Context, p *model.Post) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.users[p.AuthorID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if p.GroupID != nil {
		if _, ok := s.d.groups[*p.GroupID]; !ok {
			return gorm.ErrForeignKeyViolated
		}
	}
	p.ID = s.d.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.d.tick()
	}
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.Author = model.User{}
	stored.Group = nil
	s.d.posts[p.ID] = stored
	return nil
}

func (s *Posts) FindByID(_ context.Context, id uint) (*model.Post, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	p, ok := s.d.posts[id]
	if !ok {
		return nil, nil
	}
	p = s.d.hydrateLocked(p)
	return &p, nil
}

func (s *Posts) Update(_ context.Context, p *model.Post, columns ...string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	stored, ok := s.d.posts[p.ID]
	if !ok {
		return nil
	}
	for _, c := range columns {
		switch c {
		case "text":
			stored.Text = p.Text
		case "group_id":
			stored.GroupID = p.GroupID
		case "image":
			stored.Image = p.Image
		}
	}
	stored.UpdatedAt = s.d.tick()
	s.d.posts[p.ID] = stored
	return nil
}

func (s *Posts) Delete(_ context.Context, id uint) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.deletePostLocked(id)
	return nil
}

func (s *Posts) Count(_ context.Context, f repository.PostFilter) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return int64(len(s.d.filterLocked(f))), nil
}

func (s *Posts) List(_ context.Context, f repository.PostFilter, offset, limit int) ([]model.Post, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	all := s.d.filterLocked(f)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]model.Post, 0, end-offset)
	for _, p := range all[offset:end] {
		out = append(out, s.d.hydrateLocked(p))
	}
	return out, nil
}

func (d *DB) filterLocked(f repository.PostFilter) []model.Post {
	followed := map[uint]bool{}
	if f.FollowerID != nil {
		for _, fl := range d.follows {
			if fl.UserID == *f.FollowerID {
				followed[fl.AuthorID] = true
			}
		}
	}
	var out []model.Post
	for _, p := range d.posts {
		if f.GroupID != nil && (p.GroupID == nil || *p.GroupID != *f.GroupID) {
			continue
		}
		if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
			continue
		}
		if f.FollowerID != nil && !followed[p.AuthorID] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (d *DB) hydrateLocked(p model.Post) model.Post {
	p.Author = d.users[p.AuthorID]
	if p.GroupID != nil {
		if g, ok := d.groups[*p.GroupID]; ok {
			p.Group = &g
		}
	}
	return p
}

func (d *DB) deletePostLocked(id uint) {
	delete(d.posts, id)
	for cid, c := range d.comments {
		if c.PostID == id {
			delete(d.comments, cid)
		}
	}
}

type Comments struct{ d *DB }

func (s *Comments) Create(_ context.Context, c *model.Comment) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.posts[c.PostID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	c.ID = s.d.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.d.tick()
	}
	stored := *c
	stored.Post = model.Post{}
	stored.Author = model.User{}
	s.d.comments[c.ID] = stored
	return nil
}

func (s *Comments) ListByPost(_ context.Context, postID uint) ([]model.Comment, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []model.Comment
	for _, c := range s.d.comments {
		if c.PostID == postID {
			c.Author = s.d.users[c.AuthorID]
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Comments) CountByPost(ctx context.Context, postID uint) (int64, error) {
	list, err := s.ListByPost(ctx, postID)
	return int64(len(list)), err
}

type Follows struct{ d *DB }

func (s *Follows) Create(_ context.Context, userID, authorID uint) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, f := range s.d.follows {
		if f.UserID == userID && f.AuthorID == authorID {
			return false, nil
		}
	}
	id := s.d.id()
	s.d.follows[id] = model.Follow{ID: id, UserID: userID, AuthorID: authorID, CreatedAt: s.d.tick()}
	return true, nil
}

func (s *Follows) Find(_ context.Context, userID, authorID uint) (*model.Follow, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, f := range s.d.follows {
		if f.UserID == userID && f.AuthorID == authorID {
			cp := f
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Follows) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	f, err := s.Find(ctx, userID, authorID)
	return f != nil, err
}

func (s *Follows) CountPair(ctx context.Context, userID, authorID uint) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var n int64
	for _, f := range s.d.follows {
		if f.UserID == userID && f.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (s *Follows) Delete(_ context.Context, id uint) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	delete(s.d.follows, id)
	return nil
}

func (s *Follows) FollowerIDs(_ context.Context, authorID uint) ([]uint, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var ids []uint
	for _, f := range s.d.follows {
		if f.AuthorID == authorID {
			ids = append(ids, f.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
