package main

import (
	"flag"
	"fmt"

	"github.com/tenantry/tenantry/internal/engine/bootstrap"
	"github.com/tenantry/tenantry/pkg/runner"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/4 19:51
 * @file: main.go
 * @description: tenantry engine program
 */

var (
	configFile string
)

func init() {
	flag.StringVar(&configFile, "conf", "conf.d/config.toml", "conf file path, e.g. -conf ./conf.d/config.toml")
}

func main() {
	flag.Parse()
	printRunner()

	app, err := bootstrap.NewApp(configFile)
	if err != nil {
		panic(err)
	}

	bootstrap.Run(app)
}

func printRunner() {
	fmt.Println("runner.pwd:", runner.Pwd)
	fmt.Println("runner.hostname:", runner.Hostname)
}
