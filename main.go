package main

import (
	"github.com/luma/webservices/cmd"
)

func main() {
	cmd.Execute()
}
