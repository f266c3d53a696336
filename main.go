package main

import "github.com/Males-For-Females-llc/dapps/cmd"

func main() {
	cmd.Execute()
}
