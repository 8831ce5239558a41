package directory

import (
	"bytes"
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

func createTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

type fakeDirectory struct {
	users map[string]bool
	err   error

	lock    sync.Mutex
	calls   int
	started bool
	stopped bool
}

func (me *fakeDirectory) Type() string {
	return "fake"
}

func (me *fakeDirectory) Start() error {
	me.started = true
	return nil
}

func (me *fakeDirectory) Stop() {
	me.stopped = true
}

func (me *fakeDirectory) AccountExists(ctx context.Context, userId string) (bool, error) {
	me.lock.Lock()
	defer me.lock.Unlock()

	me.calls++
	if me.err != nil {
		return false, me.err
	}
	return me.users[userId], nil
}

func (me *fakeDirectory) callCount() int {
	me.lock.Lock()
	defer me.lock.Unlock()
	return me.calls
}

var _ Directory = &fakeDirectory{}
var _ Directory = &SynapseAdminDirectory{}
var _ Directory = &StaticFileDirectory{}
var _ Directory = &CachingDirectory{}
