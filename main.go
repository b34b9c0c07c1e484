package main

import "github.com/naka-gawa/repo-compare/cmd"

func main() {
	cmd.Execute()
}
