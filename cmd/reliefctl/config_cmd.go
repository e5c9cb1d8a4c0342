package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"gopkg.in/yaml.v3"

	"reliefctl/internal/config"
	"reliefctl/internal/logging"
)

func handleConfig(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("config subcommand required: validate | print")
	}
	sub := args[0]
	switch sub {
	case "validate":
		return configOp(args[1:], func(c *config.Config, path string, jsonOut bool, log *logging.Logger) error {
			log.Infof("config: valid (%s)", path)
			return nil
		})
	case "print":
		return configOp(args[1:], func(c *config.Config, path string, jsonOut bool, log *logging.Logger) error {
			if jsonOut {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			}
			b, err := yaml.Marshal(c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(stdout, string(b))
			return err
		})
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub)
	}
}

func configOp(args []string, fn func(c *config.Config, path string, jsonOut bool, log *logging.Logger) error) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, path, err := cf.load()
	if err != nil {
		return err
	}
	return fn(c, path, *cf.jsonOut, cf.logger(c, stderr))
}
