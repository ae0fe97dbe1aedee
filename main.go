package main

import (
	"Musga/cmd"
)

func main() {
	cmd.Execute()
}
