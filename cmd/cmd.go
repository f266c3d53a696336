package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Males-For-Females-llc/dapps/cmd/env"
	"github.com/Males-For-Females-llc/dapps/cmd/probe"
	"github.com/Males-For-Females-llc/dapps/cmd/server"
)

func Execute() {
	root := &cobra.Command{
		Use:   "dapps",
		Short: "Session delegation client and API for signless/gasless dApp interactions",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	root.AddCommand(
		server.New(),
		env.New(),
		probe.New(),
	)

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
