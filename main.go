package main

import "github.com/cvilledata/crimedash/cmd"

func main() {
	cmd.Execute()
}
