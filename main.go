package main

import "tomgalvin.uk/thermalprint/cmd"

func main() {
	cmd.Execute()
}
