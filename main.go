package main

import (
	"github.com/Hungichi/melodies-BE/cmd"
)

func main() {
	cmd.Execute()
}
