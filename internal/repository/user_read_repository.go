package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/eaglebank/admin-service/shared/models"
	sharedredis "github.com/eaglebank/admin-service/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const (
	holderViewKeyPrefix    = "holder:view:"
	holderAccountKeyPrefix = "holder:accounts:"
	holderEventKeyPrefix   = "holder:events:applied:"

	appliedEventTTL = 7 * 24 * time.Hour
)

// UserReadRepository serves account holder views from Redis, falling back to
// PostgreSQL on a miss. The per-holder account count lives in its own
// counter key and is merged into the view on every read.
type UserReadRepository struct {
	db       *sql.DB
	cache    *sharedredis.ViewCache[models.AccountHolderView]
	accounts *sharedredis.Counter
	applied  *sharedredis.Marker
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *UserReadRepository {
	return &UserReadRepository{
		db:       db,
		cache:    sharedredis.NewViewCache[models.AccountHolderView](redisClient, holderViewKeyPrefix, ttl),
		accounts: sharedredis.NewCounter(redisClient, holderAccountKeyPrefix),
		applied:  sharedredis.NewMarker(redisClient, holderEventKeyPrefix, appliedEventTTL),
	}
}

func (r *UserReadRepository) GetAccountHolder(ctx context.Context, id int64) (*models.AccountHolderView, error) {
	key := strconv.FormatInt(id, 10)
	view, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (*models.AccountHolderView, error) {
		holder, err := getAccountHolder(ctx, r.db, id)
		if err != nil {
			return nil, err
		}
		return models.ToAccountHolderView(holder), nil
	})
	if err != nil {
		return nil, err
	}
	view.AccountCount = r.accounts.Get(ctx, key)
	return view, nil
}

// CacheHolderView stores or refreshes the Redis read model for a holder.
func (r *UserReadRepository) CacheHolderView(ctx context.Context, view *models.AccountHolderView) {
	r.cache.Set(ctx, strconv.FormatInt(view.ID, 10), view)
}

func (r *UserReadRepository) IncrAccountCount(ctx context.Context, holderID int64) {
	r.accounts.Incr(ctx, strconv.FormatInt(holderID, 10))
}

func (r *UserReadRepository) DecrAccountCount(ctx context.Context, holderID int64) {
	r.accounts.Decr(ctx, strconv.FormatInt(holderID, 10))
}

// MarkEventApplied reports whether eventID is being applied for the first
// time. Events without an id cannot be deduplicated and always apply.
func (r *UserReadRepository) MarkEventApplied(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	return r.applied.Mark(ctx, eventID)
}
