package main

import (
	"fmt"
	"os"

	"github.com/juliasaboya/ScheduleEngine/internal/cli"
)

var version = "dev"

// @title Schedule Engine API
// @version 1.0.0
// @description Allocates catalog activities into free time slots and keeps weekly proposals.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
