package main

import "github.com/agentic-research/topicmap/cmd"

func main() {
	cmd.Execute()
}
