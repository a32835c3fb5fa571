package main

import "github.com/2beens/jogtracker/internal/cli"

func main() {
	cli.Execute()
}
