package main

import "github.com/spectriclabs/guppi-data-service/internal/app"

func main() {
	app.Run()
}
