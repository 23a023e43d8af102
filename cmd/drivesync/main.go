package main

import "github.com/alleyne234/drivesync/internal/cli"

func main() {
	cli.Execute()
}
