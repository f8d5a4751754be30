package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/odvcencio/venvup/pkg/config"
)

func runConfigCommand(args []string) error {
	subCmd := "show"
	if len(args) > 0 {
		subCmd = args[0]
	}

	switch subCmd {
	case "show":
		cfg, _, err := loadConfigAndRoot()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil

	case "path":
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if configPath != "" {
			fmt.Println(configPath)
			return nil
		}
		fmt.Println(config.EffectivePath(cwd))
		return nil

	case "check":
		cfg, root, err := loadConfigAndRoot()
		if err != nil {
			return err
		}
		writer := newWriter()
		writer.Success("Configuration valid")
		writer.Println("Project root: %s", root)
		writer.Println("Environment:  %s", cfg.EnvPath(root))
		writer.Println("Manifest:     %s", cfg.ManifestPath(root))
		return nil

	default:
		return fmt.Errorf("unknown config subcommand: %s (expected show, path, or check)", subCmd)
	}
}
