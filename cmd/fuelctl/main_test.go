package main

import (
	"strings"
	"testing"
)

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"promo", "create"},
		{"promo", "list"},
		{"promo", "deactivate"},
		{"promo", "redeem"},
		{"credits", "balance"},
		{"credits", "grant"},
		{"credits", "history"},
		{"refill", "sweep"},
		{"token"},
		{"migrate"},
	}

	for _, path := range paths {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			cmd, _, err := rootCmd.Find(path)
			if err != nil {
				t.Fatalf("find %v: %v", path, err)
			}
			if cmd.Name() != path[len(path)-1] {
				t.Fatalf("expected %q, got %q", path[len(path)-1], cmd.Name())
			}
		})
	}
}

func TestPromoCreateRequiresCode(t *testing.T) {
	if err := promoCreateCmd.Args(promoCreateCmd, nil); err == nil {
		t.Fatal("expected an error when CODE is missing")
	}
}
