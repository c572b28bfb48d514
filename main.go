package main

import "github.com/pendakian/trip-service/cmd"

func main() {
	cmd.Execute()
}
