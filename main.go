package main

import "github.com/inovacc/plugr/cmd"

func main() {
	cmd.Execute()
}
