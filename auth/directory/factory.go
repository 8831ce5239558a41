package directory

import (
	"fmt"
	"time"

	"matrix-shared-secret-auth/auth/configuration"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

const (
	defaultCacheSize                   = 1000
	defaultCacheExpirationMilliseconds = 5 * 60 * 1000
)

// CreateDirectoryByConfig creates the directory selected by the `Type` key.
//
// Unless `CacheSize` is set to 0, the directory gets wrapped in a CachingDirectory
// (configurable via `CacheSize` and `CacheExpirationMilliseconds`).
func CreateDirectoryByConfig(
	config configuration.AccountDirectory,
	matrixConfig configuration.Matrix,
	logger *logrus.Logger,
) (Directory, error) {
	directoryType, exists := config["Type"]
	if !exists {
		return nil, fmt.Errorf("Account directory configuration is missing a type: %#v", config)
	}

	var directory Directory
	var err error

	switch directoryType {
	case TypeSynapseAdmin:
		directory, err = NewSynapseAdminDirectory(config, matrixConfig, logger)
	case TypeStaticFile:
		directory, err = NewStaticFileDirectory(config, logger)
	default:
		return nil, fmt.Errorf("Unknown account directory type: %s", directoryType)
	}

	if err != nil {
		return nil, err
	}

	cacheSize, err := getIntFromConfig(config, "CacheSize", defaultCacheSize)
	if err != nil {
		return nil, err
	}
	if cacheSize == 0 {
		return directory, nil
	}

	expirationMilliseconds, err := getIntFromConfig(config, "CacheExpirationMilliseconds", defaultCacheExpirationMilliseconds)
	if err != nil {
		return nil, err
	}
	if expirationMilliseconds <= 0 {
		return nil, fmt.Errorf("CacheExpirationMilliseconds needs to be a positive number")
	}

	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("Failed creating account directory cache: %s", err)
	}

	return NewCachingDirectory(
		directory,
		cache,
		time.Duration(expirationMilliseconds)*time.Millisecond,
		logger,
	), nil
}
