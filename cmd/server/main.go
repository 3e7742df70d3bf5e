package main

import (
	"github.com/hunter-local/newsgraph/internal/server"
	"github.com/hunter-local/newsgraph/internal/util"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/logger/console"

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
