package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Inspect and adjust user balances",
}

var creditsBalanceCmd = &cobra.Command{
	Use:   "balance USER_ID",
	Short: "Show a user's refill-aware balance",
	Args:  cobra.ExactArgs(1),
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

		credits, err := l.fuel.GetBalance(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return printJSON(credits)
	},
}

var creditsGrantCmd = &cobra.Command{
	Use:   "grant USER_ID",
	Short: "Add permanent fuel to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		amount, _ := cmd.Flags().GetInt("amount")
		action, _ := cmd.Flags().GetString("action")
		description, _ := cmd.Flags().GetString("description")

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		credits, err := l.fuel.Grant(cmd.Context(), userID, amount, action, description)
		if err != nil {
			return err
		}
		return printJSON(credits)
	},
}

var creditsHistoryCmd = &cobra.Command{
	Use:   "history USER_ID",
	Short: "List a user's credit transactions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		txs, err := l.fuel.ListTransactions(cmd.Context(), userID, limit, 0)
		if err != nil {
			return err
		}
		return printJSON(txs)
	},
}

func init() {
	creditsGrantCmd.Flags().Int("amount", 0, "permanent fuel to add")
	creditsGrantCmd.Flags().String("action", "admin_grant", "action_type recorded on the transaction")
	creditsGrantCmd.Flags().String("description", "", "transaction description")
	creditsGrantCmd.MarkFlagRequired("amount")

	creditsHistoryCmd.Flags().Int("limit", 20, "number of transactions (max 100)")

	creditsCmd.AddCommand(creditsBalanceCmd, creditsGrantCmd, creditsHistoryCmd)
}
