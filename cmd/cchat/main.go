package main

import "github.com/pretend1111/Claude-clone-sub000/internal/cmd"

func main() {
	cmd.Execute()
}
