package main

import "github.com/facelab/annotator/cmd"

func main() {
	cmd.Execute()
}
