package main

import "github.com/pfrederiksen/meetup-events/internal/cli"

func main() {
	cli.Execute()
}
