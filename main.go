// ABOUTME: Entry point for the cinesnap CLI
// ABOUTME: Delegates to the cobra command tree in internal/cli
package main

import "github.com/econner/cinesnap/internal/cli"

func main() {
	cli.Main()
}
