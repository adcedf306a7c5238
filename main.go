package main

import (
	"os"

	"github.com/Rakhulsr/go-portal/app/cmd"
)

func main() {
	cmd.RunCli(os.Args)
}
