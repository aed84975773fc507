package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fieldvault/cmd/app/commands"
	"github.com/allisson/fieldvault/internal/app"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
)

func getKeyCommands() []*cli.Command {
	kmsFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "id",
			Aliases: []string{"i"},
			Value:   "",
			Usage:   "Master key ID (e.g., prod-master-key-2026)",
		},
		&cli.StringFlag{
			Name:  "kms-provider",
			Value: "",
			Usage: "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
		},
		&cli.StringFlag{
			Name:  "kms-key-uri",
			Value: "",
			Usage: "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
		},
	}

	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a new master key for wrapping data keys",
			Flags: kmsFlags,
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					return commands.RunCreateMasterKey(
						ctx,
						cryptoService.NewKMSService(),
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("id"),
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
					)
				})
			},
		},
		{
			Name:  "rotate-master-key",
			Usage: "Generate a new master key and append it to MASTER_KEYS as the active one",
			Flags: kmsFlags,
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					return commands.RunRotateMasterKey(
						ctx,
						cryptoService.NewKMSService(),
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("id"),
						cmd.String("kms-provider"),
						cmd.String("kms-key-uri"),
						os.Getenv("MASTER_KEYS"),
					)
				})
			},
		},
		{
			Name:  "create-key",
			Usage: "Create the first data encryption key",
			Flags: []cli.Flag{algorithmFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					masterKeyChain, err := container.MasterKeyChain(ctx)
					if err != nil {
						return err
					}
					keyUseCase, err := container.KeyUseCase()
					if err != nil {
						return err
					}
					return commands.RunCreateKey(
						ctx, keyUseCase, masterKeyChain, container.Logger(), cmd.String("algorithm"),
					)
				})
			},
		},
		{
			Name:  "rotate-key",
			Usage: "Create a new data encryption key version",
			Flags: []cli.Flag{algorithmFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					masterKeyChain, err := container.MasterKeyChain(ctx)
					if err != nil {
						return err
					}
					keyUseCase, err := container.KeyUseCase()
					if err != nil {
						return err
					}
					return commands.RunRotateKey(
						ctx, keyUseCase, masterKeyChain, container.Logger(), cmd.String("algorithm"),
					)
				})
			},
		},
		{
			Name:  "list-keys",
			Usage: "List data encryption key versions",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					keyUseCase, err := container.KeyUseCase()
					if err != nil {
						return err
					}
					return commands.RunListKeys(ctx, keyUseCase, commands.DefaultIO().Writer, cmd.String("format"))
				})
			},
		},
		{
			Name:  "rewrap-master-key",
			Usage: "Re-wrap every data key with the active master key",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					masterKeyChain, err := container.MasterKeyChain(ctx)
					if err != nil {
						return err
					}
					keyUseCase, err := container.KeyUseCase()
					if err != nil {
						return err
					}
					return commands.RunRewrapMasterKey(ctx, keyUseCase, masterKeyChain, container.Logger())
				})
			},
		},
		{
			Name:  "rewrap-fields",
			Usage: "Re-seal stored sensitive fields with the active data key version",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "entity-type",
					Aliases: []string{"e"},
					Usage:   "Entity type to process (default: every entity in the registry)",
				},
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   100,
					Usage:   "Number of rows re-sealed per transaction",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					reg, err := container.Registry()
					if err != nil {
						return err
					}
					rewrapUseCase, err := container.FieldRewrapUseCase(ctx)
					if err != nil {
						return err
					}
					return commands.RunRewrapFields(
						ctx,
						rewrapUseCase,
						reg,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("entity-type"),
						int(cmd.Int("batch-size")),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
