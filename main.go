package main

import "github.com/whispa-ai/whispad/cmd"

var version = "dev"

func main() {
	cmd.Execute(version)
}
