package main

import "github.com/KaramelBytes/smartdoc/cmd"

func main() {
	cmd.Execute()
}
