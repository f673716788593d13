package main

import "github.com/rawbank/siop-reporter/cmd"

func main() {
	cmd.Execute()
}
