package directory

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

type cachedExistence struct {
	exists    bool
	expiresAt time.Time
}

// CachingDirectory wraps another directory, remembering its answers for a while.
//
// Both positive and negative answers get cached, so that repeated login attempts
// for the same user don't keep hitting the homeserver.
// Errors are never cached. A failed lookup is retried upstream on the next request.
type CachingDirectory struct {
	other      Directory
	cache      *lru.Cache
	expiration time.Duration
	logger     *logrus.Logger

	now func() time.Time
}

func NewCachingDirectory(
	other Directory,
	cache *lru.Cache,
	expiration time.Duration,
	logger *logrus.Logger,
) *CachingDirectory {
	return &CachingDirectory{
		other:      other,
		cache:      cache,
		expiration: expiration,
		logger:     logger,

		now: time.Now,
	}
}

func (me *CachingDirectory) Type() string {
	return me.other.Type()
}

func (me *CachingDirectory) Start() error {
	return me.other.Start()
}

func (me *CachingDirectory) Stop() {
	me.other.Stop()
	me.cache.Purge()
}

func (me *CachingDirectory) AccountExists(ctx context.Context, userId string) (bool, error) {
	cached, ok := me.cache.Get(userId)
	if ok {
		entry := cached.(cachedExistence)
		if me.now().Before(entry.expiresAt) {
			me.logger.Debugf("Account existence for %s from cache: %t", userId, entry.exists)
			return entry.exists, nil
		}
		me.cache.Remove(userId)
	}

	exists, err := me.other.AccountExists(ctx, userId)
	if err != nil {
		return false, err
	}

	me.cache.Add(userId, cachedExistence{
		exists:    exists,
		expiresAt: me.now().Add(me.expiration),
	})

	return exists, nil
}
