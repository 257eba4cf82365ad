package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasbook/kasbook/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kasbook-cli",
		Short: "Kasbook CLI tool",
		Long:  `A command line interface for operating a Kasbook ledger service.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Kasbook API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(consistencyCmd(), balancesCmd(), closePeriodCmd())
	rootCmd.AddCommand(ledgerCmd)

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Maintenance operations",
	}
	adminCmd.AddCommand(overdueSweepCmd())
	rootCmd.AddCommand(adminCmd)

	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		Run: func(cmd *cobra.Command, args []string) {
			client := &http.Client{Timeout: timeout}
			resp, err := client.Get(baseURL + "/api/v1/ledger/consistency")
			if err != nil {
				fatalf("Error making request: %v", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)

			var result map[string]any
			if err := json.Unmarshal(body, &result); err != nil {
				fatalf("Failed to parse response: %v", err)
			}

			if resp.StatusCode != http.StatusOK {
				fmt.Printf("Consistency check FAILED (Status: %d)\n", resp.StatusCode)
				printJSON(result)
				os.Exit(1)
			}

			fmt.Println("Consistency check PASSED")
			printJSON(result)
		},
	}
}

func balancesCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "List account balances for a period",
		Run: func(cmd *cobra.Command, args []string) {
			endpoint := baseURL + "/api/v1/ledger/balances"
			if period != "" {
				endpoint += "?period=" + url.QueryEscape(period)
			}

			client := &http.Client{Timeout: timeout}
			resp, err := client.Get(endpoint)
			if err != nil {
				fatalf("Error making request: %v", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				fatalf("Request failed (Status: %d): %s", resp.StatusCode, string(body))
			}

			var balances []struct {
				AccountID      string `json:"account_id"`
				Currency       string `json:"currency"`
				DebitBalance   string `json:"debit_balance"`
				CreditBalance  string `json:"credit_balance"`
				ClosingBalance string `json:"closing_balance"`
				Closed         bool   `json:"closed"`
			}
			if err := json.Unmarshal(body, &balances); err != nil {
				fatalf("Failed to parse response: %v", err)
			}

			fmt.Printf("%-24s %-5s %14s %14s %14s %s\n", "ACCOUNT", "CCY", "DEBIT", "CREDIT", "CLOSING", "CLOSED")
			for _, b := range balances {
				fmt.Printf("%-24s %-5s %14s %14s %14s %v\n",
					truncate(b.AccountID, 24), b.Currency,
					b.DebitBalance, b.CreditBalance, b.ClosingBalance, b.Closed)
			}
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Period as YYYY-MM (defaults to current month)")
	return cmd
}

func closePeriodCmd() *cobra.Command {
	var (
		period string
		by     string
	)

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close an accounting period",
		Run: func(cmd *cobra.Command, args []string) {
			periodStart, err := time.Parse("2006-01", period)
			if err != nil {
				fatalf("Invalid period %q, expected YYYY-MM", period)
			}

			payload, _ := json.Marshal(map[string]any{
				"period_start": periodStart,
				"by":           by,
			})

			client := &http.Client{Timeout: timeout}
			resp, err := client.Post(baseURL+"/api/v1/ledger/close", "application/json", strings.NewReader(string(payload)))
			if err != nil {
				fatalf("Error making request: %v", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				fatalf("Close failed (Status: %d): %s", resp.StatusCode, string(body))
			}

			var result map[string]any
			if err := json.Unmarshal(body, &result); err != nil {
				fatalf("Failed to parse response: %v", err)
			}

			fmt.Println("Period closed")
			printJSON(result)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Period to close as YYYY-MM")
	cmd.Flags().StringVar(&by, "by", "", "User closing the period")
	cmd.MarkFlagRequired("period")
	cmd.MarkFlagRequired("by")
	return cmd
}

func overdueSweepCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "overdue-sweep",
		Short: "Mark approved documents past their due date as overdue",
		Run: func(cmd *cobra.Command, args []string) {
			endpoint := fmt.Sprintf("%s/api/v1/admin/overdue-sweep?batch_size=%d", baseURL, batchSize)

			client := &http.Client{Timeout: timeout}
			resp, err := client.Post(endpoint, "application/json", nil)
			if err != nil {
				fatalf("Error making request: %v", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				fatalf("Sweep failed (Status: %d): %s", resp.StatusCode, string(body))
			}

			var result map[string]any
			if err := json.Unmarshal(body, &result); err != nil {
				fatalf("Failed to parse response: %v", err)
			}

			printJSON(result)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "Maximum number of documents to mark per sweep")
	return cmd
}

func migrateCmd() *cobra.Command {
	var (
		databaseURL    string
		migrationsPath string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Database URL")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Path to migration files")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			if err := postgres.RunMigrations(databaseURL, migrationsPath); err != nil {
				fatalf("Migration failed: %v", err)
			}
			fmt.Println("Migrations applied")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Run: func(cmd *cobra.Command, args []string) {
			if err := postgres.RunMigrationsDown(databaseURL, migrationsPath); err != nil {
				fatalf("Rollback failed: %v", err)
			}
			fmt.Println("Migration rolled back")
		},
	})

	return cmd
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("Failed to encode JSON: %v", err)
	}
	fmt.Println(string(data))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func fatalf(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
