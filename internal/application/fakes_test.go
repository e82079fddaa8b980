package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/service"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

var errStoreDown = errors.New("store unreachable")

type fakeRepo struct {
	mu      sync.Mutex
	users   map[string]entity.User // by id
	reads   int
	writes  int
	down    bool
	refuse  bool // mutations report false
	lastOp  string
	filters []repository.Filter
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]entity.User{}}
}

func (r *fakeRepo) FindAll(ctx context.Context) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.down {
		return nil, errStoreDown
	}
	out := make([]entity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeRepo) Save(ctx context.Context, u entity.User) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.down {
		return entity.User{}, errStoreDown
	}
	r.users[u.ID().String()] = u
	return u, nil
}

func (r *fakeRepo) FindByEmail(ctx context.Context, email valueobject.Email) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.down {
		return entity.User{}, errStoreDown
	}
	for _, u := range r.users {
		if u.Email().Equal(email) {
			return u, nil
		}
	}
	return entity.User{}, repository.ErrNotFound
}

func (r *fakeRepo) FindByID(ctx context.Context, id valueobject.UserID) (entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.down {
		return entity.User{}, errStoreDown
	}
	u, ok := r.users[id.String()]
	if !ok {
		return entity.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) mutate(op string, u entity.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.lastOp = op
	if r.down {
		return false, errStoreDown
	}
	if r.refuse {
		return false, nil
	}
	if _, ok := r.users[u.ID().String()]; !ok {
		return false, nil
	}
	r.users[u.ID().String()] = u
	return true, nil
}

func (r *fakeRepo) Delete(ctx context.Context, u entity.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.lastOp = "delete"
	if r.down {
		return false, errStoreDown
	}
	for id, existing := range r.users {
		if existing.Email().Equal(u.Email()) {
			delete(r.users, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) Update(ctx context.Context, u entity.User) (bool, error) {
	return r.mutate("update", u)
}

func (r *fakeRepo) ChangeEmail(ctx context.Context, u entity.User) (bool, error) {
	return r.mutate("changeEmail", u)
}

func (r *fakeRepo) ChangeUsername(ctx context.Context, u entity.User) (bool, error) {
	return r.mutate("changeUsername", u)
}

func (r *fakeRepo) ChangePassword(ctx context.Context, u entity.User) (bool, error) {
	return r.mutate("changePassword", u)
}

func (r *fakeRepo) UpdateProvider(ctx context.Context, u entity.User) (bool, error) {
	return r.mutate("updateProvider", u)
}

func (r *fakeRepo) UpdateAuthorities(ctx context.Context, u entity.User) (bool, error) {
	return r.mutate("updateAuthorities", u)
}

func (r *fakeRepo) VerifyUser(ctx context.Context, u entity.User) (bool, error) {
	return r.mutate("verifyUser", u)
}

func (r *fakeRepo) FilterBy(ctx context.Context, f repository.Filter) (*repository.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
	var data []entity.User
	for _, u := range r.users {
		if f.Username != "" && !strings.HasPrefix(u.Username(), f.Username) {
			continue
		}
		data = append(data, u)
	}
	return repository.NewPage(data, len(data), f.Offset, f.PageLimit()), nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	sets    int
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = b
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *fakeCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Compare(plain, hash string) bool { return hash == "hashed:"+plain }

type fakeNotifier struct {
	created         []string
	emailChanged    []string
	passwordChanged []string
}

func (n *fakeNotifier) UserCreated(ctx context.Context, u *UserResponse) error {
	n.created = append(n.created, u.Email)
	return nil
}

func (n *fakeNotifier) EmailChanged(ctx context.Context, previousEmail string, u *UserResponse) error {
	n.emailChanged = append(n.emailChanged, previousEmail+"->"+u.Email)
	return nil
}

func (n *fakeNotifier) PasswordChanged(ctx context.Context, u *UserResponse) error {
	n.passwordChanged = append(n.passwordChanged, u.Email)
	return nil
}

type fakeIndexer struct {
	indexed map[string]UserResponse
	deleted []string
	err     error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[string]UserResponse{}}
}

func (i *fakeIndexer) IndexUser(ctx context.Context, u *UserResponse) error {
	if i.err != nil {
		return i.err
	}
	i.indexed[u.ID] = *u
	return nil
}

func (i *fakeIndexer) DeleteUser(ctx context.Context, id string) error {
	i.deleted = append(i.deleted, id)
	return i.err
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	cache    *fakeCache
	notifier *fakeNotifier
	indexer  *fakeIndexer
}

func newFixture() *fixture {
	repo := newFakeRepo()
	cache := newFakeCache()
	notifier := &fakeNotifier{}
	indexer := newFakeIndexer()
	svc := NewService(service.NewUserService(repo, nil), cache, fakeHasher{}, indexer, notifier, nil, 0)
	return &fixture{svc: svc, repo: repo, cache: cache, notifier: notifier, indexer: indexer}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
