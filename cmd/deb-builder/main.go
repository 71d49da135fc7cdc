package main

import "github.com/oshokin/deb-builder/cmd/deb-builder/cmd"

func main() {
	cmd.Execute()
}
