package main

import "jobtrack-backend/cmd/cli"

func main() {
	cli.Execute()
}
