package main

import "github.com/codestack/cli/internal/cmd"

func main() {
	cmd.Execute()
}
