package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/plug/fuel-api/internal/domain/promo"
)

var promoCmd = &cobra.Command{
	Use:   "promo",
	Short: "Create, list and deactivate promo codes",
}

var promoCreateCmd = &cobra.Command{
	Use:   "create CODE",
	Short: "Create a promo code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := promo.CreateInput{Code: args[0]}

		typ, _ := cmd.Flags().GetString("type")
		in.Type = promo.Type(typ)
		in.Amount, _ = cmd.Flags().GetInt("amount")
		in.Description, _ = cmd.Flags().GetString("description")

		if cmd.Flags().Changed("max-uses") {
			maxUses, _ := cmd.Flags().GetInt("max-uses")
			in.MaxUses = &maxUses
		}
		if expires, _ := cmd.Flags().GetString("expires"); expires != "" {
			t, err := time.Parse(time.RFC3339, expires)
			if err != nil {
				return fmt.Errorf("--expires must be RFC3339: %w", err)
			}
			in.ExpiresAt = &t
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		p, err := l.promo.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(p.ToResponse())
	},
}

var promoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List promo codes, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		codes, err := l.promo.List(cmd.Context(), limit, offset)
		if err != nil {
			return err
		}
		items := make([]*promo.Response, 0, len(codes))
		for i := range codes {
			items = append(items, codes[i].ToResponse())
		}
		return printJSON(items)
	},
}

var promoDeactivateCmd = &cobra.Command{
	Use:   "deactivate ID",
	Short: "Stop a promo code from being redeemed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid promo code id: %w", err)
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		p, err := l.promo.Deactivate(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(p.ToResponse())
	},
}

var promoRedeemCmd = &cobra.Command{
	Use:   "redeem USER_ID CODE",
	Short: "Redeem a code on behalf of a user (support tooling)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		res, err := l.promo.Redeem(ctx, userID, args[1])
		if err != nil {
			if reason := promo.Reason(err); reason != "" {
				return fmt.Errorf("%w (%s)", err, reason)
			}
			return err
		}
		return printJSON(res)
	},
}

func init() {
	promoCreateCmd.Flags().String("type", string(promo.TypeBonus), "code type: bonus or unlimited")
	promoCreateCmd.Flags().Int("amount", 0, "permanent fuel awarded by a bonus code")
	promoCreateCmd.Flags().Int("max-uses", 0, "total redemptions allowed (unset = unlimited)")
	promoCreateCmd.Flags().String("expires", "", "expiry time, RFC3339")
	promoCreateCmd.Flags().String("description", "", "internal note")

	promoListCmd.Flags().Int("limit", 20, "page size (max 100)")
	promoListCmd.Flags().Int("offset", 0, "page offset")

	promoCmd.AddCommand(promoCreateCmd, promoListCmd, promoDeactivateCmd, promoRedeemCmd)
}
