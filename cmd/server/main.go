package main

import (
	"github.com/doctrace/citegraph/internal/server"
	"github.com/doctrace/citegraph/internal/util"
	"github.com/doctrace/citegraph/pkg/logger"
	"github.com/doctrace/citegraph/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
