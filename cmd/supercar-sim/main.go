package main

import (
	_ "go.uber.org/automaxprocs"

	"cloupeer.io/supercar/cmd/supercar-sim/app"
)

func main() {
	app.NewApp().Run()
}
