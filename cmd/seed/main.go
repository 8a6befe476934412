// Command seed creates a database with sample data for local development.
// Usage: go run cmd/seed/main.go [-db path/to/dev.db]
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/libreshelf/librarian/internal/auth"
	"github.com/libreshelf/librarian/internal/config"
	"github.com/libreshelf/librarian/internal/database"
	"github.com/libreshelf/librarian/internal/database/books"
	"github.com/libreshelf/librarian/internal/database/loans"
	"github.com/libreshelf/librarian/internal/database/users"
	"github.com/libreshelf/librarian/internal/entities"
	loansvc "github.com/libreshelf/librarian/internal/loans"
)

const defaultSeedDatabasePath = "./dev.db"

func main() {
	dbPath := flag.String("db", defaultSeedDatabasePath, "path to the database file")
	flag.Parse()

	log.Printf("Seeding database at %s...", *dbPath)

	// Delete existing database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	cfg := config.NewConfig()

	bookRepo := books.NewRepository(db.DB)
	loanRepo := loans.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)

	authService := auth.NewService(userRepo, cfg.Auth)
	workflow := loansvc.NewService(bookRepo, loanRepo, userRepo, cfg.Loans.LoanPeriod)

	students := createUsers(authService)
	catalog := createBooks(bookRepo)

	// Issue a few loans so the ledger has data to show.
	if len(students) > 0 && len(catalog) > 2 {
		for _, bookID := range []uint{catalog[0], catalog[1], catalog[2]} {
			loan, err := workflow.Issue(bookID, students[0])
			if err != nil {
				log.Printf("Failed to issue book %d: %v", bookID, err)
				continue
			}
			log.Printf("Issued loan %d (book %d, due %s)", loan.ID, bookID, loan.DueDate.Format("2006-01-02"))
		}

		// Return one loan so both states appear.
		if all, err := workflow.ListAll(); err == nil && len(all) > 0 {
			if _, err := workflow.Return(all[len(all)-1].ID); err != nil {
				log.Printf("Failed to return loan: %v", err)
			}
		}

		// Backdate one loan to exercise the overdue scan.
		overdue := time.Now().Add(-14 * 24 * time.Hour)
		db.DB.Model(&entities.Loan{}).Where("id = ?", 1).
			Updates(map[string]interface{}{"issue_date": overdue, "due_date": overdue.Add(cfg.Loans.LoanPeriod)})
	}

	log.Println("Database seeded successfully!")
}

func createUsers(service *auth.Service) []uint {
	accounts := []struct {
		name     string
		username string
		email    string
		role     entities.UserRole
	}{
		{"Head Librarian", "librarian", "librarian@example.org", entities.UserRoleLibrarian},
		{"Ada Lovelace", "ada", "ada@example.org", entities.UserRoleStudent},
		{"Alan Turing", "alan", "alan@example.org", entities.UserRoleStudent},
		{"Grace Hopper", "grace", "grace@example.org", entities.UserRoleStudent},
	}

	var studentIDs []uint
	for _, a := range accounts {
		user, err := service.Register(a.name, a.username, a.email, "password123", a.role)
		if err != nil {
			log.Printf("Failed to create user %s: %v", a.username, err)
			continue
		}
		log.Printf("Created %s %q", user.Role, user.Username)
		if user.Role == entities.UserRoleStudent {
			studentIDs = append(studentIDs, user.ID)
		}
	}
	return studentIDs
}

func createBooks(repo *books.Repository) []uint {
	catalog := []struct {
		title    string
		author   string
		quantity int
	}{
		{"Meditations", "Marcus Aurelius", 3},
		{"Letters from a Stoic", "Seneca", 2},
		{"On the Origin of Species", "Charles Darwin", 1},
		{"Pride and Prejudice", "Jane Austen", 4},
		{"War and Peace", "Leo Tolstoy", 2},
		{"Crime and Punishment", "Fyodor Dostoevsky", 1},
		{"The Republic", "Plato", 2},
		{"The Art of War", "Sun Tzu", 5},
		{"Frankenstein", "Mary Shelley", 1},
		{"The Picture of Dorian Gray", "Oscar Wilde", 2},
	}

	var ids []uint
	for _, b := range catalog {
		book, err := repo.CreateBook(b.title, b.author, b.quantity)
		if err != nil {
			log.Printf("Failed to save book %s: %v", b.title, err)
			continue
		}
		log.Printf("Saved: %s by %s (%d copies)", book.Title, book.Author, book.Quantity)
		ids = append(ids, book.ID)
	}
	return ids
}
