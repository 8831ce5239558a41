package httpgateway

import (
	"context"
	"net/http"
	"time"

	"matrix-shared-secret-auth/auth/configuration"
	"matrix-shared-secret-auth/auth/httphelp"
	"matrix-shared-secret-auth/auth/matrix"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	logger              *logrus.Logger
	configuration       configuration.HttpGateway
	handlerRegistrators []httphelp.HandlerRegistrator
	writeTimeout        time.Duration

	server *http.Server
}

func NewServer(
	logger *logrus.Logger,
	configuration configuration.HttpGateway,
	handlerRegistrators []httphelp.HandlerRegistrator,
	writeTimeout time.Duration,
) *Server {
	return &Server{
		logger:              logger,
		configuration:       configuration,
		handlerRegistrators: handlerRegistrators,
		writeTimeout:        writeTimeout,

		server: nil,
	}
}

func (me *Server) Start() error {
	me.server = &http.Server{
		Handler:      me.createRouter(),
		Addr:         me.configuration.ListenAddress,
		WriteTimeout: me.writeTimeout,
		ReadTimeout:  10 * time.Second,
	}

	me.logger.Infof("Starting HTTP Gateway Server on %s", me.server.Addr)

	go func() {
		err := me.server.ListenAndServe()
		if err != http.ErrServerClosed {
			me.logger.Panicf("HTTP Gateway Server error: %s", err)
		}
	}()

	return nil
}

func (me *Server) Stop() error {
	if me.server == nil {
		return nil
	}

	me.logger.Infoln("Stopping HTTP Gateway Server")
	me.server.Shutdown(context.Background())

	return nil
}

func (me *Server) createRouter() http.Handler {
	r := mux.NewRouter()

	for _, registrator := range me.handlerRegistrators {
		registrator.RegisterRoutesWithRouter(r)
	}

	r.NotFoundHandler = http.HandlerFunc(me.actionNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(me.actionNotFound)

	return r
}

func (me *Server) actionNotFound(w http.ResponseWriter, r *http.Request) {
	logger := me.logger.WithField("method", r.Method)
	logger = logger.WithField("uri", r.RequestURI)
	logger.Debugf("HTTP gateway: unrecognized request")

	httphelp.RespondWithMatrixError(w, http.StatusNotFound, matrix.ErrorUnrecognized, "Unrecognized request")
}
