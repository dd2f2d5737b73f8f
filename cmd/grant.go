package cmd

import (
	"context"
	"fmt"

	"github.com/mcg25035/RiceCall-sub002/configs"
	server "github.com/mcg25035/RiceCall-sub002/internal"
	"github.com/mcg25035/RiceCall-sub002/internal/services/membership"
	"github.com/spf13/cobra"
)

var grant struct {
	userID   string
	serverID string
	level    int
}

// grantCmd materializes a Member record. Accepting member applications happens here,
// outside the command protocol.
var grantCmd = &cobra.Command{
	Use:   "grant-member",
	Short: "Set a user's permission level in a server",
	Args:  cobra.NoArgs,
	RunE:  grantMember,
}

func init() {
	grantCmd.Flags().StringVar(&grant.userID, "user", "", "user id")
	grantCmd.Flags().StringVar(&grant.serverID, "server", "", "server id")
	grantCmd.Flags().IntVar(&grant.level, "level", 2, "permission level (1-8)")
	_ = grantCmd.MarkFlagRequired("user")
	_ = grantCmd.MarkFlagRequired("server")
	rootCmd.AddCommand(grantCmd)
}

func grantMember(cmd *cobra.Command, _ []string) error {
	store, err := server.OpenStore(configs.DatabasePath(), false)
	if err != nil {
		return err
	}
	defer store.Close()

	member, err := membership.New(store).Grant(context.Background(), grant.userID, grant.serverID, grant.level)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now level %d in %s\n", member.UserID, member.PermissionLevel, member.ServerID)
	return nil
}
