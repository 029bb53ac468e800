package main

import (
	"os"

	"leadscout/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
