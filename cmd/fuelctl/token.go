package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plug/fuel-api/internal/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token [USER_ID]",
	Short: "Mint an access token for local testing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := uuid.New()
		if len(args) == 1 {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			userID = id
		}
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		token, err := jwt.NewService(viper.GetString("jwt-secret"), ttl).GenerateAccessToken(userID, role)
		if err != nil {
			return err
		}
		return printJSON(map[string]string{
			"user_id":      userID.String(),
			"role":         role,
			"access_token": token,
		})
	},
}

func init() {
	tokenCmd.Flags().String("role", jwt.RoleAuthenticated, "token role: authenticated, admin or service_role")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
}
