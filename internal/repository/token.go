package repository

import (
	"context"
	"fmt"
	"time"
)

// TokenRepository 访问令牌仓库
// 每行对应一个已签发的令牌（jti），删除即撤销
type TokenRepository struct {
	db *DB
}

// NewTokenRepository 创建令牌仓库
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create 记录新签发的令牌
func (r *TokenRepository) Create(ctx context.Context, id string, userID int64, expiresAt time.Time) error {
	query := `
		INSERT INTO access_tokens (id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Pool.Exec(ctx, query, id, userID, expiresAt, time.Now()); err != nil {
		return fmt.Errorf("insert access token: %w", err)
	}
	return nil
}

// Exists 判断令牌是否仍然有效（存在且未过期）
func (r *TokenRepository) Exists(ctx context.Context, id string, userID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM access_tokens WHERE id = $1 AND user_id = $2 AND expires_at > NOW()`
	var count int64
	if err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("check access token: %w", err)
	}
	return count > 0, nil
}

// Delete 撤销单个令牌
func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM access_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	return nil
}

// DeleteExpired 清理已过期的令牌
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM access_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
