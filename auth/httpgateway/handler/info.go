package handler

import (
	"net/http"

	"matrix-shared-secret-auth/auth/httphelp"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const InfoPath = "/_matrix-internal/shared-secret-auth"

type infoHandler struct {
	logger *logrus.Logger
}

func NewInfoHandler(logger *logrus.Logger) *infoHandler {
	return &infoHandler{
		logger: logger,
	}
}

func (me *infoHandler) RegisterRoutesWithRouter(router *mux.Router) {
	// To make it easy to detect if we're reachable (and at the right address), we add this custom route.
	router.HandleFunc(InfoPath, me.actionInfo).Methods("GET")
}

func (me *infoHandler) actionInfo(w http.ResponseWriter, r *http.Request) {
	logger := me.logger.WithField("method", r.Method)
	logger = logger.WithField("uri", r.RequestURI)
	logger.Debugf("HTTP gateway: serving info page")

	httphelp.RespondWithBytes(w, http.StatusOK, "text/plain", []byte("Matrix shared secret authenticator"))
}

// Ensure interface is implemented
var _ httphelp.HandlerRegistrator = &infoHandler{}
