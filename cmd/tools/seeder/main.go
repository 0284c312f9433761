package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/noah-isme/omnipay-inventory/internal/app"
	"github.com/noah-isme/omnipay-inventory/internal/invoice"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	itemIDs := seedCatalog(db)
	seedTaxes(db)
	seedSales(db, itemIDs)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	users := []struct {
		Code  string
		Name  string
		Login string
		Role  string
		Admin bool
		Coins int64
	}{
		{"E-000", "Store Owner", "owner", "Admin", true, 0},
		{"E-001", "Maria Lopez", "maria", "Cashier", false, 0},
		{"E-002", "Dev Patel", "dev", "Cashier", false, 0},
		{"C-100", "Rina Hart", "rina", "Customer", false, 25000},
		{"C-101", "Tom Baker", "tom", "Customer", false, 9999},
		{"C-102", "Ana Silva", "ana", "Customer", false, 120000},
	}

	hash, err := app.HashPassword("password123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (user_code, user_name, name, email, user_role, is_admin, password_hash, available_coins)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_code) DO UPDATE SET available_coins = EXCLUDED.available_coins;
		`, u.Code, u.Login, u.Name, u.Login+"@omnipay.test", u.Role, u.Admin, hash, u.Coins)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Login, err)
		}
	}
}

type seededItem struct {
	ID    int64
	Name  string
	Price float64
}

func seedCatalog(db *sql.DB) []seededItem {
	categories := []string{"Beverages", "Snacks", "Tobacco", "Household", "Deli"}

	fmt.Println("Seeding Categories...")
	catIDs := make(map[string]int64)
	for _, name := range categories {
		var id int64
		err := db.QueryRow(`SELECT category_id FROM categories WHERE name = $1`, name).Scan(&id)
		if err == sql.ErrNoRows {
			err = db.QueryRow(`INSERT INTO categories (name) VALUES ($1) RETURNING category_id`, name).Scan(&id)
		}
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", name, err)
			continue
		}
		catIDs[name] = id
	}

	items := []struct {
		Name     string
		UPC      string
		Category string
		Cost     float64
		Charged  *float64
		Taxable  bool
		Stock    int
	}{
		{"Spring Water 500ml", "012000001291", "Beverages", 1.00, nil, false, 240},
		{"Cola 12oz Can", "049000028911", "Beverages", 1.25, nil, true, 360},
		{"Cold Brew Coffee", "085000012345", "Beverages", 4.49, ptr(4.52), true, 48},
		{"Potato Chips", "028400090858", "Snacks", 2.19, nil, true, 120},
		{"Trail Mix", "041303011012", "Snacks", 5.99, nil, true, 60},
		{"Paper Towels 2pk", "037000862611", "Household", 6.49, nil, true, 40},
		{"Turkey Sandwich", "200000004021", "Deli", 7.95, nil, false, 20},
	}

	fmt.Println("Seeding Items...")
	var seeded []seededItem
	for _, it := range items {
		var id int64
		err := db.QueryRow(`
			INSERT INTO items (name, upc, item_cost, charged_cost, sales_tax_enabled, in_stock, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (upc) DO UPDATE SET name = EXCLUDED.name
			RETURNING item_id;
		`, it.Name, it.UPC, it.Cost, it.Charged, it.Taxable, it.Stock, catIDs[it.Category]).Scan(&id)
		if err != nil {
			log.Printf("Failed to upsert item %s: %v", it.Name, err)
			continue
		}
		price := it.Cost
		if it.Charged != nil {
			price = *it.Charged
		}
		seeded = append(seeded, seededItem{ID: id, Name: it.Name, Price: price})
	}

	fmt.Println("Seeding Bulk Pricing...")
	for i, it := range seeded {
		if i > 2 {
			break
		}
		_, err := db.Exec(`
			INSERT INTO bulk_pricing_tiers (item_id, quantity, pricing, discount_type)
			VALUES ($1, 6, $2, '$'), ($1, 12, 10, '%')
			ON CONFLICT (item_id, quantity) DO NOTHING;
		`, it.ID, it.Price*0.9)
		if err != nil {
			log.Printf("Failed to seed tiers for %s: %v", it.Name, err)
		}
	}
	return seeded
}

func seedTaxes(db *sql.DB) {
	fmt.Println("Seeding Sales Tax...")
	if _, err := db.Exec(`
		INSERT INTO sales_tax (name, rate)
		SELECT 'State sales tax', 6.625
		WHERE NOT EXISTS (SELECT 1 FROM sales_tax);
	`); err != nil {
		log.Printf("Failed to seed sales tax: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO companies (name, credit_card_charge)
		SELECT 'OmniPay Corner Store', 3.5
		WHERE NOT EXISTS (SELECT 1 FROM companies);
	`); err != nil {
		log.Printf("Failed to seed company: %v", err)
	}
}

func seedSales(db *sql.DB, items []seededItem) {
	if len(items) == 0 {
		return
	}
	fmt.Println("Seeding Sales...")

	today := time.Now().Truncate(24 * time.Hour)
	cashiers := []string{"maria", "dev"}
	payments := []string{"Cash", "Card"}
	last := map[string]string{}
	for _, cashier := range cashiers {
		var code string
		if err := db.QueryRow(`SELECT last_code FROM invoice_sequences WHERE user_name = $1`, cashier).Scan(&code); err == nil {
			last[cashier] = code
		}
	}
	for n := 0; n < 24; n++ {
		cashier := cashiers[n%len(cashiers)]
		code := invoice.NextCode(cashier, last[cashier])
		last[cashier] = code
		at := today.Add(time.Duration(8+n%10)*time.Hour + time.Duration(n*7%60)*time.Minute)

		tx, err := db.Begin()
		if err != nil {
			log.Printf("Failed to begin invoice %s: %v", code, err)
			continue
		}
		var invoiceID int64
		err = tx.QueryRow(`
			INSERT INTO invoices (invoice_code, user_name, payment_type, invoiced_by, created_at)
			VALUES ($1, $2, $3, $2, $4)
			ON CONFLICT (invoice_code) DO NOTHING
			RETURNING invoice_id;
		`, code, cashier, payments[n%len(payments)], at).Scan(&invoiceID)
		if err == sql.ErrNoRows {
			_ = tx.Rollback()
			continue
		}
		if err != nil {
			_ = tx.Rollback()
			log.Printf("Failed to insert invoice %s: %v", code, err)
			continue
		}

		total := 0.0
		for k := 0; k <= n%3; k++ {
			it := items[(n+k)%len(items)]
			qty := 1 + (n+k)%4
			price := it.Price * float64(qty)
			total += price
			if _, err := tx.Exec(`
				INSERT INTO invoice_items (invoice_id, item_id, name, quantity, total_price)
				VALUES ($1, $2, $3, $4, $5);
			`, invoiceID, it.ID, it.Name, qty, price); err != nil {
				log.Printf("Failed to insert line for %s: %v", code, err)
			}
			if _, err := tx.Exec(`
				INSERT INTO inventory_tracking (item_id, tracking_type, quantity, note, created_at)
				VALUES ($1, 'Sale', $2, $3, $4);
			`, it.ID, -qty, code, at); err != nil {
				log.Printf("Failed to track stock for %s: %v", code, err)
			}
		}
		if _, err := tx.Exec(`UPDATE invoices SET subtotal = $2, total = $2 WHERE invoice_id = $1`, invoiceID, total); err != nil {
			log.Printf("Failed to total invoice %s: %v", code, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO invoice_sequences (user_name, last_code) VALUES ($1, $2)
			ON CONFLICT (user_name) DO UPDATE SET last_code = EXCLUDED.last_code, updated_at = now();
		`, cashier, code); err != nil {
			log.Printf("Failed to advance sequence for %s: %v", cashier, err)
		}
		if err := tx.Commit(); err != nil {
			log.Printf("Failed to commit invoice %s: %v", code, err)
		}
	}
}

func ptr(v float64) *float64 { return &v }
