// The cinefeed command turns cinema listings and Telegram channel pages
// into RSS feeds. See the cmd package for the available subcommands.
package main

import "github.com/cinefeed/crawler/cmd"

func main() {
	cmd.Execute()
}
