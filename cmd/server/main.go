package main

import "github.com/sheegull/deephand-forms/internal/cli"

func main() {
	cli.Execute()
}
