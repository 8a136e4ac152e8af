package main

import (
	"os"

	build2vs "github.com/kamrann/build2-vs"
)

/***************************************
 * Launch Command (program entry point)
 ***************************************/

func main() {
	if err := build2vs.LaunchCommand("b2vs"); err != nil {
		os.Exit(1)
	}
}
