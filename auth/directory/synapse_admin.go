package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"matrix-shared-secret-auth/auth/configuration"
	"matrix-shared-secret-auth/auth/matrix"

	"github.com/Jeffail/gabs"
	"github.com/matrix-org/gomatrix"
	"github.com/sirupsen/logrus"
)

// SynapseAdminDirectory determines account existence by querying Synapse's user admin API.
//
// It requires the access token of a homeserver admin.
type SynapseAdminDirectory struct {
	homeserverApiEndpoint string
	accessToken           string
	logger                *logrus.Logger

	// treatDeactivatedAsMissing makes deactivated accounts look like they don't exist.
	// Synapse itself would consider them existing.
	treatDeactivatedAsMissing bool

	httpClient *http.Client
}

func NewSynapseAdminDirectory(
	config configuration.AccountDirectory,
	matrixConfig configuration.Matrix,
	logger *logrus.Logger,
) (*SynapseAdminDirectory, error) {
	if matrixConfig.HomeserverApiEndpoint == "" {
		return nil, fmt.Errorf("Synapse admin directory requires Matrix.HomeserverApiEndpoint")
	}

	accessToken, err := getStringFromConfig(config, "AccessToken")
	if err != nil {
		return nil, fmt.Errorf("Synapse admin directory: %s", err)
	}

	treatDeactivatedAsMissing, err := getBoolFromConfig(config, "TreatDeactivatedAsMissing", false)
	if err != nil {
		return nil, fmt.Errorf("Synapse admin directory: %s", err)
	}

	return &SynapseAdminDirectory{
		homeserverApiEndpoint:     matrixConfig.HomeserverApiEndpoint,
		accessToken:               accessToken,
		logger:                    logger,
		treatDeactivatedAsMissing: treatDeactivatedAsMissing,

		// We never want to get stuck waiting on the homeserver, so we'll use our own http client for gomatrix.
		httpClient: &http.Client{
			Timeout: time.Duration(matrixConfig.TimeoutMilliseconds) * time.Millisecond,
		},
	}, nil
}

func (me *SynapseAdminDirectory) Type() string {
	return TypeSynapseAdmin
}

func (me *SynapseAdminDirectory) Start() error {
	me.logger.Infof("Starting account directory: %s (%s)", me.Type(), me.homeserverApiEndpoint)
	return nil
}

func (me *SynapseAdminDirectory) Stop() {
	me.logger.Infof("Stopping account directory: %s", me.Type())
	me.httpClient.CloseIdleConnections()
}

type accountExistsResult struct {
	exists bool
	err    error
}

func (me *SynapseAdminDirectory) AccountExists(ctx context.Context, userId string) (bool, error) {
	// gomatrix does not support contexts, so we wait for it on the side.
	// The request itself is bounded by the http client's timeout.
	resultChannel := make(chan accountExistsResult, 1)

	go func() {
		exists, err := me.queryAccountExists(userId)
		resultChannel <- accountExistsResult{exists: exists, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("Gave up checking if %s exists: %w", userId, ctx.Err())
	case result := <-resultChannel:
		return result.exists, result.err
	}
}

func (me *SynapseAdminDirectory) queryAccountExists(userId string) (bool, error) {
	client, err := gomatrix.NewClient(me.homeserverApiEndpoint, "", me.accessToken)
	if err != nil {
		return false, fmt.Errorf("Failed creating client: %s", err)
	}
	client.Client = me.httpClient

	userUrl, err := buildUserUrl(client, userId)
	if err != nil {
		return false, err
	}

	var resp map[string]interface{}
	err = client.MakeRequest("GET", userUrl, nil, &resp)
	if err != nil {
		if matrix.IsNotFoundError(err) {
			me.logger.Debugf("Synapse reports that %s does not exist", userId)
			return false, nil
		}
		return false, fmt.Errorf("Failed querying Synapse for %s: %s", userId, err)
	}

	if !me.treatDeactivatedAsMissing {
		return true, nil
	}

	jsonObj, err := gabs.Consume(resp)
	if err != nil {
		return false, fmt.Errorf("Unexpected Synapse response for %s: %s", userId, err)
	}

	// Depending on the Synapse version, `deactivated` is either a boolean or a 0/1 number.
	switch deactivated := jsonObj.Search("deactivated").Data().(type) {
	case bool:
		return !deactivated, nil
	case float64:
		return deactivated == 0, nil
	}

	return true, nil
}

// buildUserUrl returns the admin API URL for the given user.
//
// The user id is a single (escaped) path segment. gomatrix's BuildBaseURL runs everything through path.Join,
// which would let a user id like `@a/../@b:example.org` point to another user's resource.
func buildUserUrl(client *gomatrix.Client, userId string) (string, error) {
	u, err := url.Parse(client.BuildBaseURL(matrix.SynapseAdminApiUsersPrefix))
	if err != nil {
		return "", fmt.Errorf("Failed building URL for %s: %s", userId, err)
	}

	u.RawPath = fmt.Sprintf("%s/%s", u.EscapedPath(), url.PathEscape(userId))
	u.Path = fmt.Sprintf("%s/%s", u.Path, userId)

	return u.String(), nil
}
