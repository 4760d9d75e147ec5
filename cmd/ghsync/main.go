package main

import "ghsync/internal/cmd"

func main() {
	cmd.Execute()
}
