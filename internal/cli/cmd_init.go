package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize braid in the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Init(".", force); err != nil {
				return err
			}
			fmt.Println("braid initialized:", config.StateDir+"/"+config.ConfigFileName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing .braid directory")
	return cmd
}
