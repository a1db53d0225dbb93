package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/I-No-oNe/TuneX/internal/keys"
	"github.com/I-No-oNe/TuneX/internal/shared"
)

func keysCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "keys",
		Usage: "Manage API keys",
		Commands: []*cli.Command{
			{
				Name:      "gen",
				Usage:     "Generate a key for a username",
				ArgsUsage: "<username>",
				Flags:     []cli.Flag{configFlag},
				Action:    r.KeysGen,
			},
			{
				Name:      "add",
				Usage:     "Store an explicit key for a username",
				ArgsUsage: "<username> <key>",
				Flags:     []cli.Flag{configFlag},
				Action:    r.KeysAdd,
			},
			{
				Name:      "remove",
				Usage:     "Revoke the key for a username",
				ArgsUsage: "<username>",
				Flags:     []cli.Flag{configFlag},
				Action:    r.KeysRemove,
			},
			{
				Name:   "list",
				Usage:  "List issued keys",
				Flags:  []cli.Flag{configFlag},
				Action: r.KeysList,
			},
		},
	}
}

// keysRepo loads config and opens the key repository for a keys subcommand.
func (r *Runner) keysRepo(cmd *cli.Command) (*keys.Repository, func(), error) {
	if err := r.loadConfig(cmd); err != nil {
		return nil, nil, err
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}

	return keys.NewRepository(db), func() { db.Close() }, nil
}

// KeysGen generates and prints a fresh key for a username.
func (r *Runner) KeysGen(ctx context.Context, cmd *cli.Command) error {
	username := cmd.Args().First()
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	repo, closeDB, err := r.keysRepo(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	key, err := repo.Generate(username)
	if err != nil {
		return err
	}

	return r.writePlain("Generated key for %q:\n  %s\n", username, key)
}

// KeysAdd stores an explicit key for a username.
func (r *Runner) KeysAdd(ctx context.Context, cmd *cli.Command) error {
	username := cmd.Args().Get(0)
	key := cmd.Args().Get(1)
	if username == "" || key == "" {
		return fmt.Errorf("%w: username and key", shared.ErrMissingArgument)
	}

	repo, closeDB, err := r.keysRepo(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Add(username, key); err != nil {
		return err
	}

	return r.writePlain("Added user %q.\n", username)
}

// KeysRemove revokes the key for a username.
func (r *Runner) KeysRemove(ctx context.Context, cmd *cli.Command) error {
	username := cmd.Args().First()
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	repo, closeDB, err := r.keysRepo(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Remove(username); err != nil {
		return err
	}

	return r.writePlain("Removed %q.\n", username)
}

// KeysList prints all issued keys as JSON.
func (r *Runner) KeysList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.keysRepo(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	issued, err := repo.List()
	if err != nil {
		return err
	}

	if len(issued) == 0 {
		return r.writePlain("No keys.\n")
	}

	return r.writeJSON(issued, true)
}
