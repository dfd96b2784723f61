package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
	"github.com/vendora/vendora/domain/valueobject"
	"github.com/vendora/vendora/infrastructure/adapter/persistence"
	"github.com/vendora/vendora/infrastructure/config"
	"github.com/vendora/vendora/infrastructure/service/password"
)

func main() {
	email := flag.String("email", "admin@vendora.local", "admin email")
	userPassword := flag.String("password", "", "admin password (min 8 characters)")
	role := flag.String("role", entity.RoleAdmin, "role: admin or user")
	flag.Parse()

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	credentials, err := valueobject.NewCredentials(*email, *userPassword)
	if err != nil {
		log.Fatalf("Invalid credentials: %v", err)
	}
	userRole := strings.ToLower(*role)
	if userRole != entity.RoleAdmin && userRole != entity.RoleUser {
		log.Fatalf("Unsupported role %q", *role)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, dialect, err := persistence.Open(ctx, persistence.DBConfig{
		Driver: cfg.DBDriver,
		DSN:    cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRepo := persistence.NewUserRepository(db, dialect)

	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)
	hashedPassword, err := passwordService.HashPassword(credentials.Password())
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := entity.NewUser(uuid.NewString(), credentials.Email(), hashedPassword, userRole)
	if err := userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, outbound.ErrUserAlreadyExists) {
			log.Fatalf("User %s already exists", credentials.Email())
		}
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created\n")
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Role:  %s\n", user.Role)
	fmt.Printf("ID:    %s\n", user.ID)
}
