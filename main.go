package main

import "contacts-api/cmd"

func main() {
	cmd.Execute()
}
