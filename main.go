package main

import (
	"github.com/sitewright/sitewright/cmd"
)

func main() {
	cmd.Execute()
}
