package main

import (
	"cardpool/cmd"
)

func main() {
	cmd.Execute()
}
