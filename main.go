package main

import "github.com/killallgit/songscraper/cmd"

func main() {
	cmd.Execute()
}
