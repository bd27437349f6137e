package main

import "github.com/campusops/smart-attendance/cmd"

func main() {
	cmd.Execute()
}
