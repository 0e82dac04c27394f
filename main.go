package main

import "spark-client/cmd"

func main() {
	cmd.Execute()
}
