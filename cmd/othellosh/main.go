package main

//go-build: CGO_ENABLED=0

import (
	"github.com/othellokit/console.go/pkg/cli/sh"

	_ "github.com/othellokit/console.go/pkg/cli/cmds/othello"
)

func main() {
	sh.Main()
}
