package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/lenterailmu/ujian-backend/internal/config"
	"github.com/lenterailmu/ujian-backend/internal/database"
	"github.com/lenterailmu/ujian-backend/internal/logger"
	"github.com/lenterailmu/ujian-backend/internal/model"
	"github.com/lenterailmu/ujian-backend/internal/repository"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	// Name
	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	// Username
	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	// Role
	fmt.Print("Enter Role (STUDENT/TEACHER): ")
	roleStr, _ := reader.ReadString('\n')
	role := model.UserRole(strings.ToUpper(strings.TrimSpace(roleStr)))
	if role != model.RoleStudent && role != model.RoleTeacher {
		fmt.Println("Error: Role must be STUDENT or TEACHER")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		fmt.Printf("Error hashing password: %v\n", err)
		return
	}

	user := &model.User{
		Name:         name,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		fmt.Printf("Error creating user: %v\n", err)
		return
	}

	fmt.Printf("User created: id=%d username=%s role=%s\n", user.ID, user.Username, user.Role)
}
