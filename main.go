package main

import "github.com/PolymathNetwork/polymath-contract-wrappers-sub003/cmd"

func main() {
	cmd.Execute()
}
