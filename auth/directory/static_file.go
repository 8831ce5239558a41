package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sync"
	"time"

	"matrix-shared-secret-auth/auth/configuration"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// StaticFileDirectory serves account existence data from a JSON file, which gets reloaded whenever it changes.
//
// The file is either a list of full user ids, or an object with such a list in a `users` key.
type StaticFileDirectory struct {
	path   string
	logger *logrus.Logger

	lockLoad sync.Mutex
	watcher  *fsnotify.Watcher

	lockUsers sync.RWMutex
	users     map[string]struct{}
}

func NewStaticFileDirectory(
	config configuration.AccountDirectory,
	logger *logrus.Logger,
) (*StaticFileDirectory, error) {
	path, err := getStringFromConfig(config, "Path")
	if err != nil {
		return nil, fmt.Errorf("Static file directory: %s", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("Failed initializing inotify watcher: %s", err)
	}

	return &StaticFileDirectory{
		path:   path,
		logger: logger,

		watcher: watcher,
		users:   map[string]struct{}{},
	}, nil
}

func (me *StaticFileDirectory) Type() string {
	return TypeStaticFile
}

func (me *StaticFileDirectory) Start() error {
	me.logger.Infof("Starting account directory: %s (%s)", me.Type(), me.path)

	err := me.load()
	if err != nil {
		return err
	}

	go me.watch()

	return me.watcher.Add(me.path)
}

func (me *StaticFileDirectory) Stop() {
	me.logger.Infof("Stopping account directory: %s", me.Type())

	me.watcher.Close()
}

func (me *StaticFileDirectory) AccountExists(ctx context.Context, userId string) (bool, error) {
	me.lockUsers.RLock()
	defer me.lockUsers.RUnlock()

	_, exists := me.users[userId]
	return exists, nil
}

func (me *StaticFileDirectory) load() error {
	me.lockLoad.Lock()
	defer me.lockLoad.Unlock()

	fileBytes, err := ioutil.ReadFile(me.path)
	if err != nil {
		return err
	}

	userIds, err := parseUserIdsFromJsonBytes(fileBytes)
	if err != nil {
		return fmt.Errorf("Failed parsing %s: %s", me.path, err)
	}

	users := make(map[string]struct{}, len(userIds))
	for _, userId := range userIds {
		users[userId] = struct{}{}
	}

	me.lockUsers.Lock()
	me.users = users
	me.lockUsers.Unlock()

	me.logger.Debugf("Loaded %d accounts from %s", len(users), me.path)

	return nil
}

func (me *StaticFileDirectory) watch() {
	for {
		select {
		case ev, ok := <-me.watcher.Events:
			if !ok {
				return
			}

			// We handle remove events too, because editors like vim would swap the file atomically.
			// There's no Write operation there, rather a sequence (Rename, Chmod, Remove)
			// (could be a bug too, see: https://github.com/fsnotify/fsnotify/issues/92)
			isWrite := ev.Op&fsnotify.Write == fsnotify.Write
			isRemove := ev.Op&fsnotify.Remove == fsnotify.Remove

			if !isWrite && !isRemove {
				continue
			}

			time.AfterFunc(reloadDelay, func() {
				err := me.load()

				if err == nil {
					me.logger.Infof("Reloaded accounts from %s", me.path)
				} else {
					me.logger.Warnf("Failed to reload accounts from %s (keeping the previous ones): %s", me.path, err)
				}
			})

			// If the file gets removed, we need to start watching it again.
			if isRemove {
				me.watcher.Add(me.path)
			}
		case err, ok := <-me.watcher.Errors:
			if !ok {
				return
			}
			me.logger.Warnf("Account directory file watcher error: %s", err)
		}
	}
}

var reloadDelay = 1 * time.Second

func parseUserIdsFromJsonBytes(jsonBytes []byte) ([]string, error) {
	var userIds []string
	if err := json.Unmarshal(jsonBytes, &userIds); err == nil {
		return userIds, nil
	}

	var wrapped struct {
		Users *[]string `json:"users"`
	}
	err := json.Unmarshal(jsonBytes, &wrapped)
	if err != nil {
		return nil, err
	}

	if wrapped.Users == nil {
		return nil, fmt.Errorf("missing `users` list")
	}

	return *wrapped.Users, nil
}
