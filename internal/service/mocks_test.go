//go:build unit

package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"soulbalance/internal/data"
)

// mockPostRepository is an in-memory PostRepository.
type mockPostRepository struct {
	posts     map[int64]*data.BlogPost
	nextID    int64
	updateErr error
	deleted   []int64
}

var _ PostRepository = (*mockPostRepository)(nil)

func newMockPostRepository(posts ...*data.BlogPost) *mockPostRepository {
	m := &mockPostRepository{posts: map[int64]*data.BlogPost{}, nextID: 100}
	for _, p := range posts {
		m.posts[p.ID] = p
	}
	return m
}

func (m *mockPostRepository) CreatePost(ctx context.Context, post *data.BlogPost) (int64, error) {
	m.nextID++
	cp := *post
	cp.ID = m.nextID
	m.posts[cp.ID] = &cp
	return cp.ID, nil
}

func (m *mockPostRepository) GetPostByID(ctx context.Context, id int64) (*data.BlogPost, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, data.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *mockPostRepository) UpdatePost(ctx context.Context, post *data.BlogPost) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *mockPostRepository) DeletePost(ctx context.Context, id, userID int64) error {
	p, ok := m.posts[id]
	if !ok || p.UserID != userID {
		return data.ErrNotFound
	}
	delete(m.posts, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPostRepository) filtered(f data.PostFilter) []*data.BlogPost {
	var out []*data.BlogPost
	for _, p := range m.posts {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.UserID != 0 && p.UserID != f.UserID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *mockPostRepository) ListPosts(ctx context.Context, f data.PostFilter, limit, offset int) ([]*data.BlogPost, error) {
	all := m.filtered(f)
	if offset > len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *mockPostRepository) CountPosts(ctx context.Context, f data.PostFilter) (int, error) {
	return len(m.filtered(f)), nil
}

// mockImageStore records saved and deleted image paths.
type mockImageStore struct {
	saveErr  error
	maxBytes int64
	saved    []string
	deleted  []string
}

var _ ImageStore = (*mockImageStore)(nil)

func (m *mockImageStore) Save(ctx context.Context, h *multipart.FileHeader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	path := fmt.Sprintf("uploads/blogs/img%d.jpg", len(m.saved)+1)
	m.saved = append(m.saved, path)
	return path, nil
}

func (m *mockImageStore) Delete(ctx context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockImageStore) MaxBytes() int64 {
	if m.maxBytes == 0 {
		return 5 * 1024 * 1024
	}
	return m.maxBytes
}

// mockRatingRepository keeps both rating pools in memory.
type mockRatingRepository struct {
	mu     sync.Mutex
	user   map[[2]int64]int
	public map[int64]map[string]int
	totals int
	// afterTotals runs once GetTotals has computed its result, before returning it.
	afterTotals func(call int)
}

var _ RatingRepository = (*mockRatingRepository)(nil)

func newMockRatingRepository() *mockRatingRepository {
	return &mockRatingRepository{user: map[[2]int64]int{}, public: map[int64]map[string]int{}}
}

func (m *mockRatingRepository) UpsertUserRating(ctx context.Context, postID, userID int64, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user[[2]int64{postID, userID}] = rating
	return nil
}

func (m *mockRatingRepository) HasPublicRating(ctx context.Context, postID int64, ip string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.public[postID][ip]
	return ok, nil
}

func (m *mockRatingRepository) InsertPublicRating(ctx context.Context, postID int64, ip string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.public[postID] == nil {
		m.public[postID] = map[string]int{}
	}
	if _, ok := m.public[postID][ip]; ok {
		return data.ErrDuplicate
	}
	m.public[postID][ip] = rating
	return nil
}

func (m *mockRatingRepository) GetUserRating(ctx context.Context, postID, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user[[2]int64{postID, userID}], nil
}

func (m *mockRatingRepository) GetTotals(ctx context.Context, postID int64) (data.RatingTotals, error) {
	m.mu.Lock()
	m.totals++
	call := m.totals
	var t data.RatingTotals
	for k, v := range m.user {
		if k[0] == postID {
			t.UserSum += int64(v)
			t.UserCount++
		}
	}
	for _, v := range m.public[postID] {
		t.PublicSum += int64(v)
		t.PublicCount++
	}
	m.mu.Unlock()
	if m.afterTotals != nil {
		m.afterTotals(call)
	}
	return t, nil
}

// mockCommentRepository keeps comments in memory.
type mockCommentRepository struct {
	comments map[int64]*data.Comment
	nextID   int64
}

var _ CommentRepository = (*mockCommentRepository)(nil)

func newMockCommentRepository() *mockCommentRepository {
	return &mockCommentRepository{comments: map[int64]*data.Comment{}}
}

func (m *mockCommentRepository) CreateComment(ctx context.Context, c *data.Comment) (*data.Comment, error) {
	m.nextID++
	cp := *c
	cp.ID = m.nextID
	cp.Username = fmt.Sprintf("user%d", c.UserID)
	cp.CreatedAt = time.Now()
	m.comments[cp.ID] = &cp
	return &cp, nil
}

func (m *mockCommentRepository) GetCommentByID(ctx context.Context, id int64) (*data.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return c, nil
}

func (m *mockCommentRepository) ListCommentsByPost(ctx context.Context, postID int64) ([]*data.Comment, error) {
	var out []*data.Comment
	for id := int64(1); id <= m.nextID; id++ {
		if c, ok := m.comments[id]; ok && c.BlogPostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCommentRepository) DeleteComment(ctx context.Context, id, userID int64) error {
	c, ok := m.comments[id]
	if !ok || c.UserID != userID {
		return data.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

// mockUserRepository keeps users in memory with unique usernames and e-mails.
type mockUserRepository struct {
	users []*data.User
}

var _ UserRepository = (*mockUserRepository)(nil)

func (m *mockUserRepository) CreateUser(ctx context.Context, user *data.User) (int64, error) {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return 0, data.ErrDuplicate
		}
	}
	user.ID = int64(len(m.users) + 1)
	cp := *user
	m.users = append(m.users, &cp)
	return user.ID, nil
}

func (m *mockUserRepository) find(match func(*data.User) bool) (*data.User, error) {
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockUserRepository) GetUserByEmail(ctx context.Context, email string) (*data.User, error) {
	return m.find(func(u *data.User) bool { return u.Email == email })
}

func (m *mockUserRepository) GetUserByUsername(ctx context.Context, username string) (*data.User, error) {
	return m.find(func(u *data.User) bool { return u.Username == username })
}

func (m *mockUserRepository) GetUserByID(ctx context.Context, id int64) (*data.User, error) {
	return m.find(func(u *data.User) bool { return u.ID == id })
}

func (m *mockUserRepository) SetRole(ctx context.Context, email, role string) error {
	for _, u := range m.users {
		if u.Email == email {
			u.Role = role
			return nil
		}
	}
	return data.ErrNotFound
}

// memoryCache is a map-backed cache.Store.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key], nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) Close() error { return nil }

// mockContactRepository records saved messages.
type mockContactRepository struct {
	saved []*data.ContactMessage
}

func (m *mockContactRepository) SaveMessage(ctx context.Context, msg *data.ContactMessage) error {
	m.saved = append(m.saved, msg)
	return nil
}

// mockNotifier records notifications and can fail on demand.
type mockNotifier struct {
	sent []*data.ContactMessage
	err  error
}

func (m *mockNotifier) NotifyContact(ctx context.Context, msg *data.ContactMessage) error {
	m.sent = append(m.sent, msg)
	return m.err
}

var errBoom = errors.New("boom")
