package main

import (
	_ "go.uber.org/automaxprocs"

	"cloupeer.io/supercar/cmd/supercarctl/app"
)

func main() {
	app.NewApp().Run()
}
