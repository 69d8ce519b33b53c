// package main reads & validates configuration for the batch relay service
// and if the config is valid starts an instance of the batch relay service
package main

import (
	"errors"
	"fmt"

	"github.com/fanout-labs/batch-relay-service/config"
	"github.com/fanout-labs/batch-relay-service/logging"
	"github.com/fanout-labs/batch-relay-service/service"
)

var (
	serviceConfig config.Config
	serviceLogger logging.ServiceLogger
)

func init() {
	serviceConfig = config.ReadConfig()

	err := config.Validate(serviceConfig)

	if err != nil {
		panic(err)
	}

	serviceLogger, err = logging.New(serviceConfig.LogLevel)

	if err != nil {
		panic(err)
	}
}

func main() {
	serviceLogger.Debug().Msg(fmt.Sprintf("initial config: %+v", serviceConfig))

	service, err := service.New(serviceConfig, &serviceLogger)

	if err != nil {
		serviceLogger.Panic().Msg(fmt.Sprintf("%v", errors.Unwrap(err)))
	}

	service.Run()
}
