package main

import "github.com/ValentinKolb/stones/cmd"

func main() {
	cmd.Execute()
}
