package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/othellokit/console.go/pkg/console"
	"github.com/othellokit/console.go/pkg/framework"
)

func init() {
	console.SetupFlags()
}

func main() {
	flag.Parse()

	cns := console.NewConfig().MustNewConsole()
	framework.NewLoop().Add(cns).RunOrFail()
}
