package main

import (
	"context"
	"os"

	_ "github.com/kirinyoku/park-go/docs"
	"github.com/kirinyoku/park-go/internal/cli"
)

// @title park-go API
// @version 1.0
// @description Parking slot reservations with live capacity accounting.
// @host localhost:8080
// @BasePath /
func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
