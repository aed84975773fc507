package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fieldvault/cmd/app/commands"
	"github.com/allisson/fieldvault/internal/app"
)

func getComplianceCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "verify-audit-logs",
			Usage: "Verify cryptographic integrity of audit logs",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "start-date",
					Aliases: []string{"s"},
					Usage:   "Start date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format (default: beginning)",
				},
				&cli.StringFlag{
					Name:    "end-date",
					Aliases: []string{"e"},
					Usage:   "End date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format (default: now)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					auditLogUseCase, err := container.AuditLogUseCase()
					if err != nil {
						return err
					}
					return commands.RunVerifyAuditLogs(
						ctx,
						auditLogUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("start-date"),
						cmd.String("end-date"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "self-test",
			Usage: "Seal and open a canary value with the active data key",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					uc, err := container.ComplianceUseCase()
					if err != nil {
						return err
					}
					return commands.RunSelfTest(ctx, uc, container.Logger(), commands.DefaultIO().Writer, cmd.String("format"))
				})
			},
		},
		{
			Name:  "compliance-report",
			Usage: "Build the system-wide compliance report",
			Flags: []cli.Flag{
				formatFlag(),
				&cli.StringFlag{
					Name:    "output-dir",
					Aliases: []string{"o"},
					Usage:   "Also write the JSON export to this directory",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					uc, err := container.ComplianceUseCase()
					if err != nil {
						return err
					}
					return commands.RunComplianceReport(
						ctx,
						uc,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("format"),
						cmd.String("output-dir"),
					)
				})
			},
		},
	}
}
