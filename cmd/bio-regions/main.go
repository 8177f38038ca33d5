package main

import "github.com/grailbio/regions/cmd/bio-regions/cmd"

func main() {
	cmd.Run()
}
