package identity

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Group    string `json:"group" example:"rider"`
}

const (
	GroupDriver = "driver"
	GroupRider  = "rider"

	redisTokenKeyPrefix = "tok:"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidGroup       = errors.New("group must be driver or rider")
)

type IIdentityService interface {
	SignUp(ctx context.Context, username, email, password, group string) (*UserDTO, error)
	LogIn(ctx context.Context, username, password string) (*UserDTO, string, error)
	LogOut(ctx context.Context, token string) error
	ResolveToken(ctx context.Context, token string) (*UserDTO, error)
	LookupUser(ctx context.Context, id int64, username string) (*UserDTO, error)
	ListUsers(ctx context.Context, excludeUsername string) ([]UserDTO, error)
}

type identityService struct {
	db       *sql.DB
	rdc      *redis.Client
	tokenTTL time.Duration
}

func NewIdentityService(db *sql.DB, rdc *redis.Client, tokenTTL time.Duration) IIdentityService {
	return &identityService{
		db:       db,
		rdc:      rdc,
		tokenTTL: tokenTTL,
	}
}

func (svc *identityService) SignUp(ctx context.Context, username, email, password, group string) (*UserDTO, error) {
	if group == "" {
		group = GroupRider
	}
	if group != GroupDriver && group != GroupRider {
		return nil, ErrInvalidGroup
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	const insQ = `
	  INSERT INTO users (username, email, password_hash, user_group)
	       VALUES ($1, $2, $3, $4)
	    RETURNING id`

	dto := &UserDTO{Username: username, Email: email, Group: group}
	if err := svc.db.QueryRowContext(ctx, insQ, username, email, hash, group).Scan(&dto.ID); err != nil {
		return nil, err
	}
	return dto, nil
}

func (svc *identityService) LogIn(ctx context.Context, username, password string) (*UserDTO, string, error) {
	const q = `SELECT id, username, email, user_group, password_hash FROM users WHERE username = $1`

	dto := &UserDTO{}
	var hash []byte
	err := svc.db.QueryRowContext(ctx, q, username).Scan(
		&dto.ID, &dto.Username, &dto.Email, &dto.Group, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	// Opaque server-side token, expired by Redis on TTL.
	token := uuid.NewString()
	key := redisTokenKeyPrefix + token
	if err := svc.rdc.Set(ctx, key, dto.ID, svc.tokenTTL).Err(); err != nil {
		return nil, "", err
	}
	return dto, token, nil
}

func (svc *identityService) LogOut(ctx context.Context, token string) error {
	return svc.rdc.Del(ctx, redisTokenKeyPrefix+token).Err()
}

func (svc *identityService) ResolveToken(ctx context.Context, token string) (*UserDTO, error) {
	val, err := svc.rdc.Get(ctx, redisTokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return svc.LookupUser(ctx, id, "")
}

// LookupUser resolves a user by id when id > 0, otherwise by username.
func (svc *identityService) LookupUser(ctx context.Context, id int64, username string) (*UserDTO, error) {
	const base = `SELECT id, username, email, user_group FROM users`

	var row *sql.Row
	if id > 0 {
		row = svc.db.QueryRowContext(ctx, base+` WHERE id = $1`, id)
	} else {
		row = svc.db.QueryRowContext(ctx, base+` WHERE username = $1`, username)
	}

	dto := &UserDTO{}
	err := row.Scan(&dto.ID, &dto.Username, &dto.Email, &dto.Group)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (svc *identityService) ListUsers(ctx context.Context, excludeUsername string) ([]UserDTO, error) {
	const q = `SELECT id, username, email, user_group FROM users WHERE username <> $1 ORDER BY username`

	rows, err := svc.db.QueryContext(ctx, q, excludeUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]UserDTO, 0)
	for rows.Next() {
		var dto UserDTO
		if err := rows.Scan(&dto.ID, &dto.Username, &dto.Email, &dto.Group); err != nil {
			return nil, err
		}
		list = append(list, dto)
	}
	return list, rows.Err()
}
