package main

import "github.com/josephgoksu/geotask/cmd"

func main() {
	cmd.Execute()
}
