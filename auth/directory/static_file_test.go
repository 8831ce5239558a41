package directory

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"matrix-shared-secret-auth/auth/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsersFile(t *testing.T, contents string) string {
	dir, err := ioutil.TempDir("", "directory")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "users.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0600))

	return path
}

func TestParseUserIdsFromJsonBytes(t *testing.T) {
	type testCase struct {
		json        string
		expected    []string
		expectError bool
	}

	for _, tc := range []testCase{
		{`["@alice:example.org", "@bob:example.org"]`, []string{"@alice:example.org", "@bob:example.org"}, false},
		{`{"users": ["@alice:example.org"]}`, []string{"@alice:example.org"}, false},
		{`{"users": []}`, []string{}, false},
		{`{"people": []}`, nil, true},
		{`{"users": "@alice:example.org"}`, nil, true},
		{`not json`, nil, true},
	} {
		userIds, err := parseUserIdsFromJsonBytes([]byte(tc.json))
		if tc.expectError {
			assert.Error(t, err, tc.json)
			continue
		}

		require.NoError(t, err, tc.json)
		assert.Equal(t, tc.expected, userIds)
	}
}

func TestStaticFileDirectoryRequiresPath(t *testing.T) {
	_, err := NewStaticFileDirectory(configuration.AccountDirectory{"Type": TypeStaticFile}, createTestLogger())
	assert.Error(t, err)
}

func TestStaticFileDirectoryFailsToStartWithMissingFile(t *testing.T) {
	directory, err := NewStaticFileDirectory(
		configuration.AccountDirectory{"Path": filepath.Join(os.TempDir(), "definitely-missing-users.json")},
		createTestLogger(),
	)
	require.NoError(t, err)
	defer directory.Stop()

	assert.Error(t, directory.Start())
}

func TestStaticFileDirectoryAccountExists(t *testing.T) {
	path := writeUsersFile(t, `{"users": ["@alice:example.org"]}`)

	directory, err := NewStaticFileDirectory(configuration.AccountDirectory{"Path": path}, createTestLogger())
	require.NoError(t, err)
	require.NoError(t, directory.Start())
	defer directory.Stop()

	exists, err := directory.AccountExists(context.Background(), "@alice:example.org")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = directory.AccountExists(context.Background(), "@bob:example.org")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStaticFileDirectoryReloadsOnChange(t *testing.T) {
	previousReloadDelay := reloadDelay
	reloadDelay = 10 * time.Millisecond
	defer func() { reloadDelay = previousReloadDelay }()

	path := writeUsersFile(t, `["@alice:example.org"]`)

	directory, err := NewStaticFileDirectory(configuration.AccountDirectory{"Path": path}, createTestLogger())
	require.NoError(t, err)
	require.NoError(t, directory.Start())
	defer directory.Stop()

	require.NoError(t, ioutil.WriteFile(path, []byte(`["@alice:example.org", "@bob:example.org"]`), 0600))

	assert.Eventually(t, func() bool {
		exists, _ := directory.AccountExists(context.Background(), "@bob:example.org")
		return exists
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStaticFileDirectoryKeepsUsersOnBadReload(t *testing.T) {
	path := writeUsersFile(t, `["@alice:example.org"]`)

	directory, err := NewStaticFileDirectory(configuration.AccountDirectory{"Path": path}, createTestLogger())
	require.NoError(t, err)
	defer directory.Stop()
	require.NoError(t, directory.load())

	require.NoError(t, ioutil.WriteFile(path, []byte(`{broken`), 0600))
	assert.Error(t, directory.load())

	exists, err := directory.AccountExists(context.Background(), "@alice:example.org")
	require.NoError(t, err)
	assert.True(t, exists)
}
