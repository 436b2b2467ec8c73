package main

import "github.com/vietdv277/vpcctl/cmd"

func main() {
	cmd.Execute()
}
