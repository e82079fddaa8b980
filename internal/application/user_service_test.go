package application

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

func TestUserCacheKey(t *testing.T) {
	if got := UserCacheKey("a@b.io"); got != "user with a@b.io: " {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRegisterUserScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.svc.RegisterUser(ctx, "Test", "test@x.com", "12345678")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Password == "12345678" || resp.Password == "" {
		t.Fatalf("password must be stored hashed, got %q", resp.Password)
	}
	want := []RoleResponse{{RoleID: 1, Authority: "USER"}}
	if !reflect.DeepEqual(resp.Authorities, want) {
		t.Fatalf("authorities = %+v, want %+v", resp.Authorities, want)
	}
	if resp.Provider != "local" || resp.IsVerified {
		t.Fatalf("unexpected provider/verified: %q %v", resp.Provider, resp.IsVerified)
	}
	if !f.cache.has("user with test@x.com: ") {
		t.Fatalf("email key not cached")
	}
	if !f.cache.has("user with " + resp.ID + ": ") {
		t.Fatalf("id key not cached")
	}
	if f.cache.ttls["user with test@x.com: "] != DefaultUserCacheTTL {
		t.Fatalf("unexpected ttl %v", f.cache.ttls["user with test@x.com: "])
	}
	if len(f.notifier.created) != 1 || f.notifier.created[0] != "test@x.com" {
		t.Fatalf("expected one welcome notification, got %v", f.notifier.created)
	}
	if _, ok := f.indexer.indexed[resp.ID]; !ok {
		t.Fatalf("registered user not indexed")
	}

	reads := f.repo.reads
	got, err := f.svc.FindByEmail(ctx, "test@x.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if got.Email != "test@x.com" {
		t.Fatalf("email = %q", got.Email)
	}
	if f.repo.reads != reads {
		t.Fatalf("find after register must be served from cache")
	}
}

func TestRegisterUserRejectsMalformedEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.RegisterUser(context.Background(), "Test", "not-an-email", "12345678")
	if !errors.Is(err, valueobject.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if f.repo.writes != 0 || f.cache.setCount() != 0 {
		t.Fatalf("no store or cache mutation expected, writes=%d sets=%d", f.repo.writes, f.cache.setCount())
	}
}

func TestFindByEmailMissLoadsAndCaches(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seeded, _ := f.svc.RegisterUser(ctx, "Test", "test@x.com", "12345678")
	_ = f.cache.Del(ctx, UserCacheKey("test@x.com"))

	got, err := f.svc.FindByEmail(ctx, "test@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != seeded.ID {
		t.Fatalf("id = %q, want %q", got.ID, seeded.ID)
	}
	if !f.cache.has(UserCacheKey("test@x.com")) {
		t.Fatalf("miss must repopulate the cache")
	}
}

func TestFindByEmailCacheHitSurvivesStoreOutage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.svc.RegisterUser(ctx, "Test", "test@x.com", "12345678"); err != nil {
		t.Fatalf("register: %v", err)
	}
	f.repo.down = true

	if _, err := f.svc.FindByEmail(ctx, "test@x.com"); err != nil {
		t.Fatalf("cache hit must not touch the store: %v", err)
	}
}

func TestFindByEmailNotFoundIsNotCached(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FindByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if f.cache.setCount() != 0 {
		t.Fatalf("absence must not be cached")
	}
}

func TestFindByEmailMalformedSkipsStore(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FindByEmail(context.Background(), "broken")
	if !errors.Is(err, valueobject.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if f.repo.reads != 0 {
		t.Fatalf("store must not be queried for a malformed email")
	}
}

func TestFindByIDStoreErrorPropagates(t *testing.T) {
	f := newFixture()
	f.repo.down = true
	_, err := f.svc.FindByID(context.Background(), valueobject.NewUserID().String())
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestFindByIDRejectsMalformedID(t *testing.T) {
	f := newFixture()
	_, err := f.svc.FindByID(context.Background(), "42")
	if !errors.Is(err, valueobject.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	in := &UserResponse{
		ID:       valueobject.NewUserID().String(),
		Username: "Test",
		Email:    "test@x.com",
		Password: "hashed:pw",
		Authorities: []RoleResponse{
			{RoleID: 1, Authority: "USER"},
			{RoleID: 2, Authority: "ADMIN"},
		},
		Provider:   "github",
		IsVerified: true,
		CreatedAt:  time.Date(2024, 3, 9, 7, 30, 0, 0, time.UTC),
	}
	u, err := ToDomain(in)
	if err != nil {
		t.Fatalf("to domain: %v", err)
	}
	if out := ToResponse(u); !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestCachedResponseCarriesCreatedAt(t *testing.T) {
	in := UserResponse{
		ID:        valueobject.NewUserID().String(),
		Email:     "test@x.com",
		Provider:  "local",
		CreatedAt: time.Date(2024, 3, 9, 7, 30, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"created_at":"2024-03-09T07:30:00Z"`) {
		t.Fatalf("created_at missing from %s", raw)
	}
	var out UserResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("CreatedAt = %v, want %v", out.CreatedAt, in.CreatedAt)
	}

	in.CreatedAt = time.Time{}
	raw, _ = json.Marshal(in)
	if strings.Contains(string(raw), "created_at") {
		t.Fatalf("unsaved user should omit created_at: %s", raw)
	}
}

func TestDeleteUserInvalidatesOnlyEmailKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	resp, _ := f.svc.RegisterUser(ctx, "Test", "test@x.com", "12345678")

	ok, err := f.svc.DeleteUser(ctx, resp)
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if f.cache.has(UserCacheKey("test@x.com")) {
		t.Fatalf("email key must be removed")
	}
	if len(f.indexer.deleted) != 1 || f.indexer.deleted[0] != resp.ID {
		t.Fatalf("search document not dropped: %v", f.indexer.deleted)
	}

	stale, err := f.svc.FindByID(ctx, resp.ID)
	if err != nil {
		t.Fatalf("id key should still answer: %v", err)
	}
	if stale.Email != "test@x.com" {
		t.Fatalf("unexpected stale entry %+v", stale)
	}
	if _, err := f.svc.FindByEmail(ctx, "test@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}

func TestDeleteUserNil(t *testing.T) {
	f := newFixture()
	ok, err := f.svc.DeleteUser(context.Background(), nil)
	if ok || err != nil {
		t.Fatalf("got %v %v", ok, err)
	}
}

func TestOAuthCreatesVerifiedUser(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.OAuth(context.Background(), "Octo", "octo@x.com", "random", "github")
	if err != nil {
		t.Fatalf("oauth: %v", err)
	}
	if !resp.IsVerified || resp.Provider != "github" {
		t.Fatalf("unexpected oauth user %+v", resp)
	}
	if len(f.notifier.created) != 0 {
		t.Fatalf("oauth accounts get no verification mail")
	}
	if _, err := f.svc.OAuth(context.Background(), "X", "x@x.com", "pw", "myspace"); !errors.Is(err, valueobject.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat for unknown provider, got %v", err)
	}
}

func TestFindByFilterBuildsCriteria(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.svc.RegisterUser(ctx, "john doe", "john@x.com", "12345678")
	_, _ = f.svc.RegisterUser(ctx, "jane", "jane@x.com", "12345678")

	page, err := f.svc.FindByFilter(ctx, UserFilter{Username: "john-d", Page: 3, Limit: 5, OrderBy: "username-desc"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	got := f.repo.filters[len(f.repo.filters)-1]
	if got.Username != "john d" {
		t.Fatalf("dashes must become spaces, got %q", got.Username)
	}
	if got.Offset != 10 || got.Limit != 5 {
		t.Fatalf("offset/limit = %d/%d", got.Offset, got.Limit)
	}
	if got.Order == nil || got.Order.Field != "username" || got.Order.Direction != "desc" {
		t.Fatalf("unexpected order %+v", got.Order)
	}
	if page.Total != 1 || page.Page != 3 {
		t.Fatalf("unexpected page %+v", page)
	}
	if f.cache.setCount() != 4 {
		t.Fatalf("filtered reads must not touch the cache")
	}

	if _, err := f.svc.FindByFilter(ctx, UserFilter{UserID: "nope"}); !errors.Is(err, valueobject.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestFindAll(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.svc.RegisterUser(ctx, "a", "a@x.com", "12345678")
	_, _ = f.svc.RegisterUser(ctx, "b", "b@x.com", "12345678")

	all, err := f.svc.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
}
