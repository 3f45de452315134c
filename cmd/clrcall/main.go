package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles().Error.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
