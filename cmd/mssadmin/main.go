package main

import "github.com/mss-project-web/admin-dashboard-sub000/internal/cli"

func main() {
	cli.Execute()
}
