package main

import (
	"os"

	"pyrs/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
