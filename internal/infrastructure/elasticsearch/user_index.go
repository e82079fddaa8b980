package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	elastic "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
)

const requestTimeout = 3 * time.Second

var usersMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":       map[string]any{"type": "keyword"},
			"username": map[string]any{"type": "keyword"},
			"email":    map[string]any{"type": "keyword"},
			"password": map[string]any{"type": "keyword", "index": false},
			"authorities": map[string]any{
				"type": "nested",
				"properties": map[string]any{
					"role_id":   map[string]any{"type": "integer"},
					"authority": map[string]any{"type": "keyword"},
				},
			},
			"provider":    map[string]any{"type": "keyword"},
			"is_verified": map[string]any{"type": "boolean"},
			"created_at": map[string]any{
				"type":   "date",
				"format": "strict_date_optional_time||epoch_millis",
			},
		},
	},
}

// UserIndex keeps user documents in an Elasticsearch index and answers
// filtered queries from it.
type UserIndex struct {
	client *elastic.Client
	index  string
	logger *logrus.Logger
}

func NewUserIndex(client *elastic.Client, index string, logger *logrus.Logger) *UserIndex {
	return &UserIndex{client: client, index: index, logger: logger}
}

type authorityDoc struct {
	RoleID    int    `json:"role_id"`
	Authority string `json:"authority"`
}

type userDocument struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	Authorities []authorityDoc `json:"authorities"`
	Provider    string         `json:"provider"`
	IsVerified  bool           `json:"is_verified"`
	CreatedAt   string         `json:"created_at,omitempty"`
}

func newUserDocument(u *application.UserResponse) userDocument {
	auths := make([]authorityDoc, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		auths = append(auths, authorityDoc{RoleID: a.RoleID, Authority: a.Authority})
	}
	doc := userDocument{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Password:    u.Password,
		Authorities: auths,
		Provider:    u.Provider,
		IsVerified:  u.IsVerified,
	}
	if !u.CreatedAt.IsZero() {
		doc.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return doc
}

func (d userDocument) toEntity() (entity.User, error) {
	resp := &application.UserResponse{
		ID:          d.ID,
		Username:    d.Username,
		Email:       d.Email,
		Password:    d.Password,
		Authorities: make([]application.RoleResponse, 0, len(d.Authorities)),
		Provider:    d.Provider,
		IsVerified:  d.IsVerified,
	}
	if d.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, d.CreatedAt)
		if err != nil {
			return entity.User{}, fmt.Errorf("decode created_at: %w", err)
		}
		resp.CreatedAt = t
	}
	for _, a := range d.Authorities {
		resp.Authorities = append(resp.Authorities, application.RoleResponse{RoleID: a.RoleID, Authority: a.Authority})
	}
	return application.ToDomain(resp)
}

// EnsureIndex creates the users index with its mapping when it does not exist.
func (x *UserIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.client.Indices.Exists([]string{x.index}, x.client.Indices.Exists.WithContext(c))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := json.Marshal(usersMapping)
	res, err = x.client.Indices.Create(x.index,
		x.client.Indices.Create.WithContext(c),
		x.client.Indices.Create.WithBody(bytes.NewReader(body)))
	if err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index create: %s", res.Status())
	}
	x.logger.WithField("index", x.index).Info("elasticsearch index created")
	return nil
}

// updateBody builds the partial-update request for u. created_at comes from
// the store; now is used only when the user has none.
func updateBody(u *application.UserResponse, now time.Time) ([]byte, error) {
	doc := newUserDocument(u)
	upsert := doc
	if upsert.CreatedAt == "" {
		upsert.CreatedAt = now.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(map[string]any{"doc": doc, "upsert": upsert})
}

// IndexUser upserts the user's document.
func (x *UserIndex) IndexUser(ctx context.Context, u *application.UserResponse) error {
	b, err := updateBody(u, time.Now())
	if err != nil {
		return err
	}
	req := esapi.UpdateRequest{Index: x.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.client)
	if err != nil {
		return fmt.Errorf("es index user: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index user: %s", res.Status())
	}
	return nil
}

// DeleteUser removes the user's document. A missing document is not an error.
func (x *UserIndex) DeleteUser(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.client)
	if err != nil {
		return fmt.Errorf("es delete user: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete user: %s", res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string       `json:"_id"`
			Source userDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FilterBy runs a filtered, paginated search over the users index.
func (x *UserIndex) FilterBy(ctx context.Context, f repository.Filter) (*repository.Page, error) {
	b, err := json.Marshal(buildSearchQuery(f))
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.client.Search(
		x.client.Search.WithContext(c),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, fmt.Errorf("es search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("es search decode: %w", err)
	}

	users := make([]entity.User, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		u, err := h.Source.toEntity()
		if err != nil {
			x.logger.WithError(err).WithField("doc_id", h.ID).Warn("skipping malformed user document")
			continue
		}
		users = append(users, u)
	}
	return repository.NewPage(users, parsed.Hits.Total.Value, f.Offset, f.PageLimit()), nil
}

var _ application.SearchIndexer = (*UserIndex)(nil)
var _ repository.UserSearcher = (*UserIndex)(nil)
