package command

import (
	"github.com/spf13/cobra"
)

// NewSubcommandGroup 创建仅承载子命令的命令组
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: use,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(subcommands...)
	return cmd
}
