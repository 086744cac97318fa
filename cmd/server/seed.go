package main

import (
	"errors"

	"github.com/spf13/cobra"

	"helphub/internal/app"
	apperrors "helphub/internal/errors"
	"helphub/internal/policy"
	"helphub/internal/service"
)

var seedDemo bool

var demoQueries = []string{
	"I cannot log in to the billing portal since this morning.",
	"The VPN client disconnects every few minutes on Wi-Fi.",
	"Please add me to the design team shared drive.",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the bootstrap admin and optional demo data",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also create a demo user with sample tickets")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// app.New applies migrations and creates the bootstrap admin.
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if !seedDemo {
		return nil
	}

	user, err := a.Auth.Register(ctx, service.RegisterInput{
		Username: "demo",
		Email:    "demo@example.com",
		Password: "demo1234",
	})
	if errors.Is(err, apperrors.ErrUserAlreadyExists) {
		logger.Info("demo user already exists, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	actor := policy.ActorFor(user)
	for _, q := range demoQueries {
		if _, err := a.Tickets.Create(ctx, actor, q); err != nil {
			return err
		}
	}
	logger.Info("demo data created", "username", user.Username, "tickets", len(demoQueries))
	return nil
}
