package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/valueobject"
)

const selectUser = `
	SELECT u.id, u.username, u.email, u.password, u.provider, u.is_verified, u.created_at,
		COALESCE(
			json_agg(json_build_object('role_id', r.role_id, 'authority', r.authority) ORDER BY r.role_id)
				FILTER (WHERE r.role_id IS NOT NULL),
			'[]'
		) AS authorities
	FROM users u
	LEFT JOIN user_role_junction urj ON u.id = urj.user_id
	LEFT JOIN roles r ON urj.role_id = r.role_id`

const groupUser = `
	GROUP BY u.id, u.username, u.email, u.password, u.provider, u.is_verified, u.created_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

type roleRow struct {
	RoleID    int    `json:"role_id"`
	Authority string `json:"authority"`
}

type userRow struct {
	ID          string
	Username    string
	Email       string
	Password    string
	Provider    string
	IsVerified  bool
	CreatedAt   time.Time
	Authorities []byte
}

func scanUser(row pgx.Row) (userRow, error) {
	var r userRow
	err := row.Scan(&r.ID, &r.Username, &r.Email, &r.Password, &r.Provider, &r.IsVerified, &r.CreatedAt, &r.Authorities)
	return r, err
}

func (r userRow) toEntity() (entity.User, error) {
	id, err := valueobject.ParseUserID(r.ID)
	if err != nil {
		return entity.User{}, err
	}
	email, err := valueobject.NewEmail(r.Email)
	if err != nil {
		return entity.User{}, err
	}
	provider, err := valueobject.NewProvider(r.Provider)
	if err != nil {
		return entity.User{}, err
	}
	var rows []roleRow
	if len(r.Authorities) > 0 {
		if err := json.Unmarshal(r.Authorities, &rows); err != nil {
			return entity.User{}, fmt.Errorf("decode authorities: %w", err)
		}
	}
	roles := entity.NewRoleSet()
	for _, rr := range rows {
		roles = roles.Add(entity.NewRole(rr.RoleID, rr.Authority))
	}
	return entity.NewUser(entity.UserParams{
		ID:         id,
		Username:   r.Username,
		Email:      email,
		Password:   r.Password,
		Roles:      roles,
		Provider:   provider,
		IsVerified: r.IsVerified,
		CreatedAt:  r.CreatedAt,
	}), nil
}

func (r *UserRepository) queryUsers(ctx context.Context, sql string, args ...any) ([]entity.User, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		row, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		u, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (entity.User, error) {
	row, err := scanUser(r.pool.QueryRow(ctx, selectUser+"\n\tWHERE "+where+groupUser, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, repository.ErrNotFound
		}
		return entity.User{}, err
	}
	return row.toEntity()
}

func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	return r.queryUsers(ctx, selectUser+groupUser+"\n\tORDER BY u.created_at")
}

func (r *UserRepository) FindByEmail(ctx context.Context, email valueobject.Email) (entity.User, error) {
	return r.findOne(ctx, "u.email = $1", email.String())
}

func (r *UserRepository) FindByID(ctx context.Context, id valueobject.UserID) (entity.User, error) {
	return r.findOne(ctx, "u.id = $1", id.UUID())
}

// Save inserts the user and its role links in one transaction.
// The returned user carries the created_at assigned by the database.
func (r *UserRepository) Save(ctx context.Context, u entity.User) (entity.User, error) {
	var createdAt time.Time
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO users (id, username, email, password, provider, is_verified)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, u.ID().UUID(), u.Username(), u.Email().String(), u.Password(), u.Provider().String(), u.IsVerified()).Scan(&createdAt); err != nil {
			return err
		}
		return insertRoles(ctx, tx, u)
	})
	if err != nil {
		return entity.User{}, err
	}
	return u.WithCreatedAt(createdAt), nil
}

func insertRoles(ctx context.Context, tx pgx.Tx, u entity.User) error {
	batch := &pgx.Batch{}
	for _, role := range u.Roles().Roles() {
		batch.Queue(`INSERT INTO user_role_junction (user_id, role_id) VALUES ($1, $2)`, u.ID().UUID(), role.ID)
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (r *UserRepository) exec(ctx context.Context, sql string, args ...any) (bool, error) {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) Delete(ctx context.Context, u entity.User) (bool, error) {
	return r.exec(ctx, `DELETE FROM users WHERE email = $1`, u.Email().String())
}

const updateUserSQL = `
	UPDATE users
	SET username = $2, password = $3, is_verified = $4, provider = $5, updated_at = CURRENT_TIMESTAMP
	WHERE email = $1
`

// updateUserArgs lines up with the placeholders of updateUserSQL.
func updateUserArgs(u entity.User) []any {
	return []any{u.Email().String(), u.Username(), u.Password(), u.IsVerified(), u.Provider().String()}
}

// Update rewrites the mutable columns of the account matched by email.
func (r *UserRepository) Update(ctx context.Context, u entity.User) (bool, error) {
	return r.exec(ctx, updateUserSQL, updateUserArgs(u)...)
}

func (r *UserRepository) ChangeEmail(ctx context.Context, u entity.User) (bool, error) {
	return r.exec(ctx, `UPDATE users SET email = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		u.ID().UUID(), u.Email().String())
}

func (r *UserRepository) ChangeUsername(ctx context.Context, u entity.User) (bool, error) {
	return r.exec(ctx, `UPDATE users SET username = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		u.ID().UUID(), u.Username())
}

func (r *UserRepository) ChangePassword(ctx context.Context, u entity.User) (bool, error) {
	return r.exec(ctx, `UPDATE users SET password = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		u.ID().UUID(), u.Password())
}

func (r *UserRepository) UpdateProvider(ctx context.Context, u entity.User) (bool, error) {
	return r.exec(ctx, `UPDATE users SET provider = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		u.ID().UUID(), u.Provider().String())
}

func (r *UserRepository) VerifyUser(ctx context.Context, u entity.User) (bool, error) {
	return r.exec(ctx, `UPDATE users SET is_verified = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		u.ID().UUID(), u.IsVerified())
}

// UpdateAuthorities replaces the user's role links with the aggregate's role set.
func (r *UserRepository) UpdateAuthorities(ctx context.Context, u entity.User) (bool, error) {
	var replaced bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM user_role_junction WHERE user_id = $1`, u.ID().UUID())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if err := insertRoles(ctx, tx, u); err != nil {
			return err
		}
		replaced = u.Roles().Len() > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return replaced, nil
}

func (r *UserRepository) FilterBy(ctx context.Context, f repository.Filter) (*repository.Page, error) {
	q := buildFilterQuery(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users u`+q.where, q.args...).Scan(&total); err != nil {
		return nil, err
	}

	args := append(q.args, f.PageLimit(), f.Offset)
	sql := fmt.Sprintf("%s%s%s\n\tORDER BY %s\n\tLIMIT $%d OFFSET $%d",
		selectUser, q.where, groupUser, q.orderBy, len(q.args)+1, len(q.args)+2)
	users, err := r.queryUsers(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return repository.NewPage(users, total, f.Offset, f.PageLimit()), nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
