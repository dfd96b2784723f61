// Command seed loads demo products as the System actor. Each product gets a
// CREATED change record like any other insert.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/usecase/audit"
	"github.com/vendora/vendora/application/usecase/product"
	domainerror "github.com/vendora/vendora/domain/error"
	"github.com/vendora/vendora/infrastructure/adapter/persistence"
	"github.com/vendora/vendora/infrastructure/config"
)

var catalog = []struct {
	title       string
	description string
	price       float64
	discount    float64
}{
	{"Oak Desk", "Solid oak writing desk", 420.00, 10},
	{"Desk Lamp", "LED lamp with dimmer", 39.90, 0},
	{"Office Chair", "Ergonomic mesh chair", 259.00, 15},
	{"Bookshelf", "Five-shelf walnut bookcase", 189.50, 0},
	{"Monitor Arm", "Dual monitor gas spring arm", 74.99, 5},
}

func main() {
	count := flag.Int("count", len(catalog), "number of products to create")
	prefix := flag.String("prefix", "DEMO", "SSN prefix for seeded products")
	flag.Parse()

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, dialect, err := persistence.Open(ctx, persistence.DBConfig{
		Driver: cfg.DBDriver,
		DSN:    cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer db.Close()

	products := persistence.NewProductRepository(db, dialect)
	changeLogs := persistence.NewChangeLogRepository(db, dialect)
	uc := product.NewProductUseCase(
		products,
		changeLogs,
		persistence.NewSQLTransactor(db),
		audit.NewRecorder(changeLogs, nil),
		nil,
	)

	inputs := make([]inbound.ProductInput, 0, *count)
	for i := 0; i < *count; i++ {
		item := catalog[i%len(catalog)]
		inputs = append(inputs, inbound.ProductInput{
			Title:       fmt.Sprintf("%s #%d", item.title, i+1),
			Description: item.description,
			Price:       item.price,
			Discount:    item.discount,
			SSN:         fmt.Sprintf("%s-%05d", *prefix, i+1),
		})
	}

	created, err := uc.BulkCreate(ctx, inputs, nil)
	if err != nil {
		if domainerror.Is(err, domainerror.ErrCodeDuplicateSSN) {
			log.Printf("products with prefix %s already seeded: %v", *prefix, err)
			return
		}
		log.Fatalf("failed to seed products: %v", err)
	}

	fmt.Printf("Seeded %d products (SSN prefix %s)\n", len(created), *prefix)
}
