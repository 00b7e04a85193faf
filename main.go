package main

import "github.com/audiolibrelab/looper/cmd"

func main() {
	cmd.Execute()
}
