// Lwar is a demo chat server and client for the Lwar protocol.
//
// Usage:
//
//	lwar serve [--config lwar.yml]
//	lwar join --name somebody [addr]
package main

import "github.com/lwar/lwar/cmd/lwar/commands"

func main() { commands.Execute() }
