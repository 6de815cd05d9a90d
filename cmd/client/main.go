// cmd/client/main.go
package main

import (
	"os"
)

func main() {
	cmd := NewCmdRoot()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
