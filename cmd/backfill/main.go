// Seeds demo data (an account, a month of transactions, and a couple of
// investment positions with price history) for local development.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	godotenv.Load()
	dbURL := os.Getenv("POSTGRES_URL")
	if dbURL == "" {
		log.Fatal("POSTGRES_URL is required")
	}

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	userID := "demo-user"
	monthStart := time.Now().UTC().AddDate(0, 0, -time.Now().UTC().Day()+1).Truncate(24 * time.Hour)

	var accountID string
	err = db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, user_id, name, balance)
		VALUES (gen_random_uuid(), $1, 'Checking', 3500.00) RETURNING id`, userID).Scan(&accountID)
	if err != nil {
		log.Fatalf("could not insert account: %v", err)
	}

	txns := []struct {
		desc, category, typ, amount string
		day                         int
	}{
		{"Monthly salary", "Income", "income", "5000.00", 1},
		{"Apartment rent", "Housing", "expense", "1800.00", 3},
		{"Supermarket run", "Food", "expense", "420.35", 5},
		{"UBER *TRIP", "Transport", "expense", "38.90", 8},
		{"NETFLIX.COM", "Entertainment", "expense", "44.90", 10},
		{"Pharmacy downtown", "Health", "expense", "86.20", 14},
	}
	for _, t := range txns {
		_, err := db.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, account_id, description, category, type, amount, occurred_at)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6::numeric, $7)`,
			userID, accountID, t.desc, t.category, t.typ, t.amount, monthStart.AddDate(0, 0, t.day-1))
		if err != nil {
			fmt.Printf("Warning: could not insert transaction %q: %v\n", t.desc, err)
		}
	}

	positions := []struct {
		symbol, qty, avg, cur, div, op string
		history                        []string
	}{
		{"VTI", "10", "220.00", "241.50", "18.40", "BUY", []string{"238.10", "240.00", "241.50"}},
		{"PETR4", "5", "38.00", "35.20", "0", "SELL", []string{"36.00", "35.80", "35.20"}},
	}
	for _, p := range positions {
		var posID string
		err := db.QueryRowContext(ctx, `
			INSERT INTO investment_positions (id, user_id, symbol, quantity, average_price, current_price, dividends_received, operation)
			VALUES (gen_random_uuid(), $1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7) RETURNING id`,
			userID, p.symbol, p.qty, p.avg, p.cur, p.div, p.op).Scan(&posID)
		if err != nil {
			fmt.Printf("Warning: could not insert position %s: %v\n", p.symbol, err)
			continue
		}
		for i, price := range p.history {
			_, err := db.ExecContext(ctx, `
				INSERT INTO position_prices (position_id, seq, price) VALUES ($1, $2, $3::numeric)`,
				posID, i, price)
			if err != nil {
				fmt.Printf("Warning: could not insert price for %s: %v\n", p.symbol, err)
			}
		}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO automation_settings (user_id, enabled, dollar_alert_threshold)
		VALUES ($1, true, 5.00) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		fmt.Printf("Warning: could not insert settings: %v\n", err)
	}

	fmt.Println("Successfully seeded demo data for", userID)
}
