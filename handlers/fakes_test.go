package handlers

import (
	"context"
	"sort"

	"github.com/sm4rtm4art/go-api-template/models"
	"github.com/sm4rtm4art/go-api-template/repositories"
)

// fakeUserRepo is an in-memory UserRepository for handler tests
type fakeUserRepo struct {
	nextID int64
	users  map[int64]*models.User
	err    error // forced error for every call when set
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (f *fakeUserRepo) add(user *models.User) *models.User {
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return repositories.ErrDuplicate
		}
	}
	f.add(user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]int64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*models.User
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, f.users[id])
	}
	return out, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	if f.err != nil {
		return f.err
	}
	u, ok := f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

// fakeContentRepo is an in-memory ContentRepository for handler tests
type fakeContentRepo struct {
	nextID int64
	items  map[int64]*models.Content
	err    error
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{items: make(map[int64]*models.Content)}
}

func (f *fakeContentRepo) add(c *models.Content) *models.Content {
	f.nextID++
	c.ID = f.nextID
	f.items[c.ID] = c
	return c
}

func (f *fakeContentRepo) Create(ctx context.Context, content *models.Content) error {
	if f.err != nil {
		return f.err
	}
	for _, c := range f.items {
		if c.Slug == content.Slug {
			return repositories.ErrDuplicate
		}
	}
	f.add(content)
	return nil
}

func (f *fakeContentRepo) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.items[id]; ok {
		return c, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeContentRepo) GetBySlug(ctx context.Context, slug string) (*models.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.items {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeContentRepo) List(ctx context.Context, limit, offset int) ([]*models.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]int64, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*models.Content
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, f.items[id])
	}
	return out, nil
}

func (f *fakeContentRepo) Update(ctx context.Context, content *models.Content) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[content.ID]; !ok {
		return repositories.ErrNotFound
	}
	for _, c := range f.items {
		if c.ID != content.ID && c.Slug == content.Slug {
			return repositories.ErrDuplicate
		}
	}
	f.items[content.ID] = content
	return nil
}

func (f *fakeContentRepo) Delete(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

// fakeTxManager is a pass-through TransactionManager for handler tests.
// It counts commits and rollbacks so tests can assert the transactional
// path was taken.
type fakeTxManager struct {
	commits   int
	rollbacks int
}

func newFakeTxManager() *fakeTxManager {
	return &fakeTxManager{}
}

func (m *fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &fakeTx{ctx: ctx}, nil
}

func (m *fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	if err := fn(ctx, &fakeTx{ctx: ctx}); err != nil {
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

type fakeTx struct {
	ctx context.Context
}

func (t *fakeTx) Commit() error            { return nil }
func (t *fakeTx) Rollback() error          { return nil }
func (t *fakeTx) Context() context.Context { return t.ctx }
