package main

import (
	"fmt"
	"os"

	"github.com/jhoicas/warehouse-monitor/internal/cli"
	"github.com/jhoicas/warehouse-monitor/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	if err := cli.NewRootCommand(cfg, cli.DialAMQP).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
