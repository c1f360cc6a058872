package main

import "github.com/jmsie/aeo/cmd"

func main() {
	cmd.Execute()
}
