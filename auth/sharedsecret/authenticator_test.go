package sharedsecret

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	users map[string]bool
	err   error

	lock  sync.Mutex
	calls []string
}

func (me *fakeDirectory) AccountExists(ctx context.Context, userId string) (bool, error) {
	me.lock.Lock()
	me.calls = append(me.calls, userId)
	me.lock.Unlock()

	if me.err != nil {
		return false, me.err
	}
	return me.users[userId], nil
}

func (me *fakeDirectory) callCount() int {
	me.lock.Lock()
	defer me.lock.Unlock()
	return len(me.calls)
}

func createLogger(output *bytes.Buffer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func createAuthenticator(t *testing.T, raw map[string]interface{}, directory AccountDirectory) (*Authenticator, *bytes.Buffer) {
	configuration, err := ValidateConfig(raw)
	require.NoError(t, err)

	output := &bytes.Buffer{}
	return NewAuthenticator(configuration, directory, createLogger(output)), output
}

func hmacHex(secret, message string) string {
	m := hmac.New(sha512.New, []byte(secret))
	m.Write([]byte(message))
	return hex.EncodeToString(m.Sum(nil))
}

func TestCheckPasswordEndToEnd(t *testing.T) {
	const (
		secret = "s3cr3t"
		userId = "@alice:example.org"
	)
	validCode := hmacHex(secret, userId)

	tampered := []byte(validCode)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}

	type testCase struct {
		name         string
		allowList    []interface{}
		users        map[string]bool
		directoryErr error
		code         string
		expected     Result
	}

	for _, tc := range []testCase{
		{
			name:      "valid code, allow-listed, existing account",
			allowList: []interface{}{`@alice:example\.org`},
			users:     map[string]bool{userId: true},
			code:      validCode,
			expected:  Result{Accepted: true},
		},
		{
			name:      "valid code, allow-listed, missing account",
			allowList: []interface{}{`@alice:example\.org`},
			users:     map[string]bool{},
			code:      validCode,
			expected:  Result{Reason: RejectionReasonIdentityDoesNotExist},
		},
		{
			name:      "valid code, existing account, not allow-listed",
			allowList: []interface{}{"@bob:.*"},
			users:     map[string]bool{userId: true},
			code:      validCode,
			expected:  Result{Reason: RejectionReasonNotAllowListed},
		},
		{
			name:      "valid code, existing account, empty allow-list",
			allowList: []interface{}{},
			users:     map[string]bool{userId: true},
			code:      validCode,
			expected:  Result{Reason: RejectionReasonNotAllowListed},
		},
		{
			name:      "tampered code",
			allowList: []interface{}{"@alice"},
			users:     map[string]bool{userId: true},
			code:      string(tampered),
			expected:  Result{Reason: RejectionReasonBadMac},
		},
		{
			name:      "uppercase code",
			allowList: []interface{}{"@alice"},
			users:     map[string]bool{userId: true},
			code:      strings.ToUpper(validCode),
			expected:  Result{Reason: RejectionReasonBadMac},
		},
		{
			name:      "empty code",
			allowList: []interface{}{"@alice"},
			users:     map[string]bool{userId: true},
			code:      "",
			expected:  Result{Reason: RejectionReasonBadMac},
		},
		{
			name:      "code for another user",
			allowList: []interface{}{"@"},
			users:     map[string]bool{userId: true},
			code:      hmacHex(secret, "@bob:example.org"),
			expected:  Result{Reason: RejectionReasonBadMac},
		},
		{
			name:         "directory failure",
			allowList:    []interface{}{"@alice"},
			directoryErr: fmt.Errorf("connection refused"),
			code:         validCode,
			expected:     Result{Reason: RejectionReasonDirectoryUnavailable},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			directory := &fakeDirectory{users: tc.users, err: tc.directoryErr}

			authenticator, _ := createAuthenticator(t, map[string]interface{}{
				"sharedSecret": secret,
				"allowList":    tc.allowList,
			}, directory)

			result := authenticator.Verify(context.Background(), userId, tc.code)
			assert.Equal(t, tc.expected, result)

			assert.Equal(t, tc.expected.Accepted, authenticator.CheckPassword(context.Background(), userId, tc.code))
		})
	}
}

func TestVerifyDoesNotConsultDirectoryBeforeEarlierGatesPass(t *testing.T) {
	directory := &fakeDirectory{users: map[string]bool{"@alice:example.org": true, "@bob:example.org": true}}

	authenticator, _ := createAuthenticator(t, map[string]interface{}{
		"sharedSecret": "s3cr3t",
		"allowList":    []interface{}{"@alice"},
	}, directory)

	authenticator.Verify(context.Background(), "@alice:example.org", "bad")
	assert.Equal(t, 0, directory.callCount(), "bad MAC must not reach the directory")

	authenticator.Verify(context.Background(), "@bob:example.org", hmacHex("s3cr3t", "@bob:example.org"))
	assert.Equal(t, 0, directory.callCount(), "non-allow-listed user must not reach the directory")

	authenticator.Verify(context.Background(), "@alice:example.org", hmacHex("s3cr3t", "@alice:example.org"))
	assert.Equal(t, 1, directory.callCount())
}

func TestVerifyWithDisabledAllowListGate(t *testing.T) {
	directory := &fakeDirectory{users: map[string]bool{"@carol:example.org": true}}

	authenticator, _ := createAuthenticator(t, map[string]interface{}{
		"sharedSecret":     "s3cr3t",
		"allowListEnabled": false,
		"allowList":        []interface{}{},
	}, directory)

	result := authenticator.Verify(context.Background(), "@carol:example.org", hmacHex("s3cr3t", "@carol:example.org"))
	assert.True(t, result.Accepted)
}

func TestVerifyFailsClosedOnCanceledContext(t *testing.T) {
	directory := &contextRespectingDirectory{}

	authenticator, _ := createAuthenticator(t, map[string]interface{}{
		"sharedSecret": "s3cr3t",
		"allowList":    []interface{}{"@alice"},
	}, directory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := authenticator.Verify(ctx, "@alice:example.org", hmacHex("s3cr3t", "@alice:example.org"))
	assert.False(t, result.Accepted)
	assert.Equal(t, RejectionReasonDirectoryUnavailable, result.Reason)
}

type contextRespectingDirectory struct{}

func (me *contextRespectingDirectory) AccountExists(ctx context.Context, userId string) (bool, error) {
	<-ctx.Done()
	return true, ctx.Err()
}

func TestVerifyNeverLogsSecretOrCode(t *testing.T) {
	directory := &fakeDirectory{users: map[string]bool{"@alice:example.org": true}}

	authenticator, output := createAuthenticator(t, map[string]interface{}{
		"sharedSecret": "s3cr3t",
		"allowList":    []interface{}{"@alice"},
	}, directory)

	code := hmacHex("s3cr3t", "@alice:example.org")
	authenticator.Verify(context.Background(), "@alice:example.org", code)
	authenticator.Verify(context.Background(), "@alice:example.org", "not-a-code")

	assert.Contains(t, output.String(), "Authenticated user")
	assert.NotContains(t, output.String(), "s3cr3t")
	assert.NotContains(t, output.String(), code)
	assert.NotContains(t, output.String(), "not-a-code")
}

func TestVerifyIsSafeForConcurrentUse(t *testing.T) {
	users := map[string]bool{}
	for i := 0; i < 20; i++ {
		users[fmt.Sprintf("@user%d:example.org", i)] = i%2 == 0
	}
	directory := &fakeDirectory{users: users}

	authenticator, _ := createAuthenticator(t, map[string]interface{}{
		"sharedSecret": "s3cr3t",
		"allowList":    []interface{}{"@user"},
	}, directory)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			userId := fmt.Sprintf("@user%d:example.org", i)
			result := authenticator.CheckPassword(context.Background(), userId, hmacHex("s3cr3t", userId))
			if result != (i%2 == 0) {
				t.Errorf("Unexpected result %v for %s", result, userId)
			}
		}(i)
	}
	wg.Wait()
}

func TestZeroConfigurationRejectsWithoutPanicking(t *testing.T) {
	directory := &fakeDirectory{users: map[string]bool{"@alice:example.org": true}}
	authenticator := NewAuthenticator(&Configuration{}, directory, createLogger(&bytes.Buffer{}))

	var result Result
	require.NotPanics(t, func() {
		// An empty key still produces a well-formed code, which must not be accepted.
		result = authenticator.Verify(context.Background(), "@alice:example.org", hmacHex("", "@alice:example.org"))
	})

	assert.False(t, result.Accepted)
	assert.Equal(t, RejectionReasonBadMac, result.Reason)
	assert.Equal(t, 0, directory.callCount())
}

func TestSharedSecretAccessorCodesAreAccepted(t *testing.T) {
	directory := &fakeDirectory{users: map[string]bool{"@alice:example.org": true}}
	configuration, err := ValidateConfig(map[string]interface{}{
		"sharedSecret": "s3cr3t",
		"allowList":    []interface{}{"@alice:"},
	})
	require.NoError(t, err)

	authenticator := NewAuthenticator(configuration, directory, createLogger(&bytes.Buffer{}))
	code := ComputeExpectedCode("@alice:example.org", configuration.SharedSecret())

	assert.True(t, authenticator.CheckPassword(context.Background(), "@alice:example.org", code))
}
