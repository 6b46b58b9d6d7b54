package main

import "github.com/fletes-mx/cotizaciones-backend/internal/cli"

func main() {
	cli.Execute()
}
