// matrix-shared-secret-auth is a shared secret authenticator for Matrix homeservers
// Copyright (C) 2018 Slavi Pantaleev
//
// http://devture.com/
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"matrix-shared-secret-auth/auth/configuration"
	"matrix-shared-secret-auth/auth/container"
	"matrix-shared-secret-auth/auth/directory"
	"matrix-shared-secret-auth/auth/httpgateway"
	"matrix-shared-secret-auth/auth/matrix"
	"matrix-shared-secret-auth/auth/sharedsecret"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.json", "configuration file to use (JSON or YAML)")
	generateFor := flag.String("generate-for", "", "print the password for the given user id and exit")
	flag.Parse()

	configuration, err := configuration.LoadConfiguration(*configPath)
	if err != nil {
		panic(err)
	}

	logger := logrus.New()
	if configuration.Misc.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	container, shutdownHandler := container.BuildContainer(*configuration, logger)

	// Validating early, so that we never start with a bad authenticator configuration.
	authenticatorConfiguration := container.Get("sharedsecret.configuration").(*sharedsecret.Configuration)

	if *generateFor != "" {
		userId, err := matrix.DetermineFullUserId(*generateFor, configuration.Matrix.HomeserverDomainName)
		if err != nil {
			panic(err)
		}

		if !authenticatorConfiguration.IsAllowed(userId) {
			logger.Warnf("%s is not on the allow-list, so this password will be rejected", userId)
		}

		generator := matrix.NewSharedSecretAuthPasswordGenerator(authenticatorConfiguration.SharedSecret())
		fmt.Println(generator.GenerateForUserId(userId))
		return
	}

	accountDirectory := container.Get("directory").(directory.Directory)
	err = accountDirectory.Start()
	if err != nil {
		panic(err)
	}

	httpGatewayServer := container.Get("httpgateway.server").(*httpgateway.Server)
	err = httpGatewayServer.Start()
	if err != nil {
		panic(err)
	}

	channelComplete := make(chan bool)
	setupSignalHandling(
		channelComplete,
		shutdownHandler,
	)

	<-channelComplete
}

func setupSignalHandling(
	channelComplete chan bool,
	shutdownHandler *container.ContainerShutdownHandler,
) {
	signalChannel := make(chan os.Signal, 2)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChannel

		shutdownHandler.Shutdown()

		channelComplete <- true
	}()
}
