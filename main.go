package main

import "github.com/luxury-yacht/flowtest-console/backend/cli"

func main() {
	cli.Execute()
}
