package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-consensus/internal/engine"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the engine config",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the schema to a file instead of stdout"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := engine.ConfigSchema()
			if err != nil {
				return err
			}

			if path := cmd.String("output"); path != "" {
				return os.WriteFile(path, []byte(schema), 0o600)
			}

			fmt.Println(schema)

			return nil
		},
	}
}
