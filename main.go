package main

import "unistream/cmd"

func main() {
	cmd.Execute()
}
