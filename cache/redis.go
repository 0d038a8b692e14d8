// Package cache keeps the per-account login timestamp backing the soft
// session-expiry check. A missing key means no enforcement, not an
// error.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type LoginStore struct {
	client *redis.Client
}

func NewLoginStore(client *redis.Client) *LoginStore {
	return &LoginStore{client: client}
}

func loginKey(accountID int) string {
	return fmt.Sprintf("login_time:%d", accountID)
}

// SetLoginTime records the sign-in moment. The key outlives the soft
// expiry window slightly so the middleware sees the stale value and
// rejects, instead of silently falling back to no enforcement.
func (store *LoginStore) SetLoginTime(ctx context.Context, accountID int, at time.Time, maxAge time.Duration) error {
	if err := store.client.Set(ctx, loginKey(accountID), at.Unix(), maxAge*2).Err(); err != nil {
		return errors.Wrap(err, "failed storing login time")
	}
	return nil
}

// LoginTime returns the recorded sign-in moment. The second return is
// false when no login time is stored.
func (store *LoginStore) LoginTime(ctx context.Context, accountID int) (time.Time, bool, error) {
	unix, err := store.client.Get(ctx, loginKey(accountID)).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "failed reading login time")
	}
	return time.Unix(unix, 0), true, nil
}

// ClearLoginTime removes the marker on sign-out.
func (store *LoginStore) ClearLoginTime(ctx context.Context, accountID int) error {
	if err := store.client.Del(ctx, loginKey(accountID)).Err(); err != nil {
		return errors.Wrap(err, "failed clearing login time")
	}
	return nil
}

// Expired applies the soft expiry rule: absent value means no
// enforcement.
func (store *LoginStore) Expired(ctx context.Context, accountID int, maxAge time.Duration) (bool, error) {
	loginTime, ok, err := store.LoginTime(ctx, accountID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return time.Since(loginTime) > maxAge, nil
}
