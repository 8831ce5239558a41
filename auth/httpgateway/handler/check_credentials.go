package handler

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"matrix-shared-secret-auth/auth/httphelp"
	"matrix-shared-secret-auth/auth/matrix"
	"matrix-shared-secret-auth/auth/userauth"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const CheckCredentialsPath = "/_matrix-internal/identity/v1/check_credentials"

// PasswordChecker is what sharedsecret.Authenticator provides to us.
type PasswordChecker interface {
	CheckPassword(ctx context.Context, userId, presentedCode string) bool
}

type checkCredentialsHandler struct {
	passwordChecker      PasswordChecker
	homeserverDomainName string
	timeout              time.Duration
	logger               *logrus.Logger

	whitelistedIPBlocks *[]*net.IPNet
}

func NewCheckCredentialsHandler(
	passwordChecker PasswordChecker,
	homeserverDomainName string,
	ipNetworkWhitelist *[]string,
	timeout time.Duration,
	logger *logrus.Logger,
) (*checkCredentialsHandler, error) {
	whitelistedIPBlocks, err := determineWhitelistedIPBlocks(ipNetworkWhitelist, logger)
	if err != nil {
		return nil, fmt.Errorf("Failed parsing IPNetworkWhitelist: %s", err)
	}

	return &checkCredentialsHandler{
		passwordChecker:      passwordChecker,
		homeserverDomainName: homeserverDomainName,
		timeout:              timeout,
		logger:               logger,

		whitelistedIPBlocks: whitelistedIPBlocks,
	}, nil
}

func (me *checkCredentialsHandler) RegisterRoutesWithRouter(router *mux.Router) {
	router.HandleFunc(CheckCredentialsPath, me.actionCheckCredentials).Methods("POST")
}

func (me *checkCredentialsHandler) actionCheckCredentials(w http.ResponseWriter, r *http.Request) {
	logger := me.logger.WithField("method", r.Method)
	logger = logger.WithField("uri", r.RequestURI)
	logger.Debug("HTTP gateway: checking credentials")

	err := checkIfRequestIsAllowed(r, me.whitelistedIPBlocks, logger)
	if err != nil {
		logger.Debug(err)
		httphelp.RespondWithMatrixError(w, http.StatusForbidden, matrix.ErrorForbidden, "Refusing to authenticate this HTTP request (bad source IP)")
		return
	}

	requestPayload := userauth.NewRestAuthRequest("", "")

	err = httphelp.GetJsonFromRequestBody(r, &requestPayload)
	if err != nil {
		httphelp.RespondWithMatrixError(w, http.StatusBadRequest, matrix.ErrorBadJson, "Bad request payload")
		return
	}

	logger = logger.WithField("userId", requestPayload.User.Id)

	userIdFull, err := matrix.DetermineFullUserId(requestPayload.User.Id, me.homeserverDomainName)
	if err != nil {
		logger.Debugf("Cannot construct user id: %s", err)
		httphelp.RespondWithJSON(w, http.StatusOK, userauth.NewUnsuccessfulRestAuthResponse())
		return
	}

	// Replace the logging field with a (potentially) better one
	logger = logger.WithField("userId", userIdFull)

	if !matrix.IsValidFullUserId(userIdFull) {
		logger.Debug("Refusing to authenticate malformed user id")
		httphelp.RespondWithJSON(w, http.StatusOK, userauth.NewUnsuccessfulRestAuthResponse())
		return
	}

	if me.homeserverDomainName != "" && !matrix.IsFullUserIdOfDomain(userIdFull, me.homeserverDomainName) {
		logger.Debug("Refusing to authenticate foreign users")
		httphelp.RespondWithJSON(w, http.StatusOK, userauth.NewUnsuccessfulRestAuthResponse())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), me.timeout)
	defer cancel()

	if !me.passwordChecker.CheckPassword(ctx, userIdFull, requestPayload.User.Password) {
		httphelp.RespondWithJSON(w, http.StatusOK, userauth.NewUnsuccessfulRestAuthResponse())
		return
	}

	httphelp.RespondWithJSON(w, http.StatusOK, userauth.NewSuccessfulRestAuthResponse(userIdFull))
}

// Ensure interface is implemented
var _ httphelp.HandlerRegistrator = &checkCredentialsHandler{}
