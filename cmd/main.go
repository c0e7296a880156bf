package main

import "fxengine/internal/cli"

// @title           FX engine API
// @version         1.0
// @description     Exchange rate lookups, conversions and cache administration.
// @BasePath        /api/v1
func main() {
	cli.Execute()
}
