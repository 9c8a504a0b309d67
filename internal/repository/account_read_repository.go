package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/eaglebank/admin-service/shared/models"
	sharedredis "github.com/eaglebank/admin-service/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const accountViewKeyPrefix = "account:view:"

// AccountReadRepository serves account views from Redis and falls back to
// PostgreSQL, warming the cache on every cold read.
type AccountReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.AccountView]
}

func NewAccountReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *AccountReadRepository {
	return &AccountReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.AccountView](redisClient, accountViewKeyPrefix, ttl),
	}
}

func (r *AccountReadRepository) GetByID(ctx context.Context, id int64) (*models.AccountView, error) {
	return r.cache.GetOrLoad(ctx, strconv.FormatInt(id, 10), func(ctx context.Context) (*models.AccountView, error) {
		query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
		account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account %d not found", id)
		}
		if err != nil {
			return nil, apperror.Internal(fmt.Sprintf("failed to get account %d", id), err)
		}
		return models.ToAccountView(account), nil
	})
}

// CacheAccountView writes an AccountView to Redis.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	r.cache.Set(ctx, strconv.FormatInt(view.ID, 10), view)
}

func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, id int64) {
	r.cache.Delete(ctx, strconv.FormatInt(id, 10))
}
