package main

import "scraper-llm/cmd"

func main() {
	cmd.Execute()
}
