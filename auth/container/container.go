package container

import (
	"time"

	"matrix-shared-secret-auth/auth/configuration"
	"matrix-shared-secret-auth/auth/directory"
	"matrix-shared-secret-auth/auth/httpgateway"
	httpGatewayHandler "matrix-shared-secret-auth/auth/httpgateway/handler"
	"matrix-shared-secret-auth/auth/httphelp"
	"matrix-shared-secret-auth/auth/sharedsecret"

	"github.com/euskadi31/go-service"
	"github.com/sirupsen/logrus"
)

type ContainerShutdownHandler struct {
	destructors []func()
}

func (me *ContainerShutdownHandler) Add(destructor func()) {
	me.destructors = append(me.destructors, destructor)
}

func (me *ContainerShutdownHandler) Shutdown() {
	for i := range me.destructors {
		me.destructors[len(me.destructors)-i-1]()
	}
}

func BuildContainer(
	configuration configuration.Configuration,
	logger *logrus.Logger,
) (service.Container, *ContainerShutdownHandler) {
	container := service.New()
	shutdownHandler := &ContainerShutdownHandler{}

	container.Set("logger", func(c service.Container) interface{} {
		return logger
	})

	container.Set("sharedsecret.configuration", func(c service.Container) interface{} {
		instance, err := sharedsecret.ValidateConfig(configuration.Authenticator)
		if err != nil {
			// Bad authenticator configuration is fatal. We never serve requests with it.
			logger.Panicf("Invalid authenticator configuration: %s", err)
		}

		return instance
	})

	container.Set("sharedsecret.authenticator", func(c service.Container) interface{} {
		return sharedsecret.NewAuthenticator(
			container.Get("sharedsecret.configuration").(*sharedsecret.Configuration),
			container.Get("directory").(directory.Directory),
			logger,
		)
	})

	container.Set("directory", func(c service.Container) interface{} {
		instance, err := directory.CreateDirectoryByConfig(
			configuration.AccountDirectory,
			configuration.Matrix,
			logger,
		)
		if err != nil {
			logger.Panicf("Failed creating account directory: %s", err)
		}

		shutdownHandler.Add(func() {
			instance.Stop()
		})

		return instance
	})

	container.Set("httpgateway.server", func(c service.Container) interface{} {
		instance := httpgateway.NewServer(
			logger,
			configuration.HttpGateway,
			container.Get("httpgateway.server.handler_registrators").([]httphelp.HandlerRegistrator),
			time.Duration(configuration.HttpGateway.TimeoutMilliseconds)*time.Millisecond,
		)

		shutdownHandler.Add(func() {
			instance.Stop()
		})

		return instance
	})

	container.Set("httpgateway.server.handler_registrators", func(c service.Container) interface{} {
		return []httphelp.HandlerRegistrator{
			container.Get("httpgateway.server.handler_registrator.check_credentials").(httphelp.HandlerRegistrator),
			container.Get("httpgateway.server.handler_registrator.info").(httphelp.HandlerRegistrator),
		}
	})

	container.Set("httpgateway.server.handler_registrator.check_credentials", func(c service.Container) interface{} {
		instance, err := httpGatewayHandler.NewCheckCredentialsHandler(
			container.Get("sharedsecret.authenticator").(*sharedsecret.Authenticator),
			configuration.Matrix.HomeserverDomainName,
			configuration.HttpGateway.IPNetworkWhitelist,
			time.Duration(configuration.Matrix.TimeoutMilliseconds)*time.Millisecond,
			logger,
		)
		if err != nil {
			logger.Panic(err)
		}

		return instance
	})

	container.Set("httpgateway.server.handler_registrator.info", func(c service.Container) interface{} {
		return httpGatewayHandler.NewInfoHandler(
			logger,
		)
	})

	return container, shutdownHandler
}
