// Package cli implements the non-server subcommands of the librarian binary.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/libreshelf/librarian/internal/auth"
	"github.com/libreshelf/librarian/internal/config"
	"github.com/libreshelf/librarian/internal/database"
	"github.com/libreshelf/librarian/internal/database/users"
	"github.com/libreshelf/librarian/internal/entities"
)

// CreateUserCommand creates a user account from the command line. Its main
// use is bootstrapping the first librarian before the API is reachable.
type CreateUserCommand struct {
	Name         string
	Username     string
	Email        string
	Password     string
	Role         string
	DatabasePath string
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Name, "name", "", "Full name of the user (required)")
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (required)")
	fs.StringVar(&cmd.Role, "role", string(entities.UserRoleLibrarian), "Role: LIBRARIAN or STUDENT")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -name <name> -username <username> -email <email> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account directly in the database.\n")
		fmt.Fprintf(os.Stderr, "Typically used to bootstrap the first librarian account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -name \"Ada Lovelace\" -username ada -email ada@example.org -password <password>\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Name == "" || cmd.Username == "" || cmd.Email == "" || cmd.Password == "" {
		return fmt.Errorf("flags -name, -username, -email and -password are all required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(users.NewRepository(db.DB), cfg.Auth)

	user, err := service.Register(cmd.Name, cmd.Username, cmd.Email, cmd.Password, entities.UserRole(cmd.Role))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created %s %q (id %d)\n", user.Role, user.Username, user.ID)
	return nil
}
