package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/models"
	"github.com/victorgomez09/sgc/internal/auth/service"
	"github.com/victorgomez09/sgc/internal/auth/validation"
	"github.com/victorgomez09/sgc/internal/config"
	"github.com/victorgomez09/sgc/internal/database"
)

const adminProfile = "Administrador"

func main() {
	var (
		configPath = flag.String("config", "./sgc.config.yaml", "Path to configuration file")
		dbPath     = flag.String("db", "", "Database path. Overrides the configuration file")
		seed       = flag.Bool("seed", false, "Create every module permission and the Administrador profile")
		createUser = flag.Bool("create-user", false, "Create a user")
		listUsers  = flag.Bool("list-users", false, "List all users")
		unlock     = flag.Bool("unlock", false, "Reset the password of a locked account")
		cpf        = flag.String("cpf", "", "CPF of the user")
		name       = flag.String("name", "", "Full name of the new user")
		email      = flag.String("email", "", "Email of the new user")
		password   = flag.String("password", "", "Password of the new user, or the new password with -unlock")
		profile    = flag.String("profile", adminProfile, "Profile name of the new user")
	)
	flag.Parse()

	path := *dbPath
	bcryptCost := 0
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		path = cfg.Database.Path
		bcryptCost = cfg.Auth.BcryptCost
	}

	db, err := database.NewSQLiteDB(path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// The CLI never issues tokens, so the secret is irrelevant here.
	authService := service.NewAuthService(db, db, service.NewBcryptHasher(bcryptCost), nil, zap.NewNop(), service.AuthConfig{
		PasswordPolicy: validation.DefaultPasswordPolicy(),
	})
	defer authService.Close()

	switch {
	case *seed:
		err = seedPermissions(ctx, db)
	case *createUser:
		if *cpf == "" || *name == "" || *email == "" || *password == "" {
			flag.Usage()
			os.Exit(1)
		}
		err = createAccount(ctx, db, authService, *cpf, *name, *email, *password, *profile)
	case *listUsers:
		err = listAllUsers(ctx, db)
	case *unlock:
		if *cpf == "" || *password == "" {
			flag.Usage()
			os.Exit(1)
		}
		err = unlockAccount(ctx, db, authService, *cpf, *password)
	default:
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%v", err)
	}
}

// seedPermissions creates the missing (module, action) pairs and grants all of
// them to the Administrador profile. Running it twice changes nothing.
func seedPermissions(ctx context.Context, db *database.SQLiteDB) error {
	existing, err := db.ListPermissions(ctx)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	have := make(map[string]int64, len(existing))
	for _, p := range existing {
		have[string(p.Modulo)+","+string(p.Acao)] = p.ID
	}

	ids := make([]int64, 0, len(models.Modules)*len(models.Actions))
	created := 0
	for _, m := range models.Modules {
		for _, a := range models.Actions {
			if id, ok := have[string(m)+","+string(a)]; ok {
				ids = append(ids, id)
				continue
			}
			p := &models.Permission{
				Modulo:    m,
				Acao:      a,
				Descricao: fmt.Sprintf("Permite %s registros do módulo %s.", a.Label(), m),
			}
			if err := db.CreatePermission(ctx, p, 0); err != nil {
				return fmt.Errorf("create permission %s,%s: %w", m, a, err)
			}
			ids = append(ids, p.ID)
			created++
		}
	}

	input := models.ProfileInput{
		Nome:          adminProfile,
		Descricao:     "Acesso completo a todos os módulos.",
		Status:        models.StatusActive,
		PermissionIDs: ids,
	}
	current, err := findProfile(ctx, db, adminProfile)
	switch {
	case err == nil:
		_, err = db.UpdateProfile(ctx, current.ID, input, 0)
	case errors.Is(err, errProfileMissing):
		_, err = db.CreateProfile(ctx, input, 0)
	}
	if err != nil {
		return fmt.Errorf("save %s profile: %w", adminProfile, err)
	}

	fmt.Printf("Seed complete: %d permissions created, %d granted to '%s'\n", created, len(ids), adminProfile)
	return nil
}

var errProfileMissing = errors.New("profile not found")

func findProfile(ctx context.Context, db *database.SQLiteDB, name string) (*models.Profile, error) {
	profiles, err := db.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if strings.EqualFold(profiles[i].Nome, name) {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errProfileMissing, name)
}

func createAccount(ctx context.Context, db *database.SQLiteDB, authService *service.AuthService, cpf, name, email, password, profileName string) error {
	p, err := findProfile(ctx, db, profileName)
	if err != nil {
		return fmt.Errorf("%w (run -seed first)", err)
	}

	user, err := authService.CreateUser(ctx, service.CreateUserInput{
		NomeCompleto: name,
		Email:        email,
		CPF:          cpf,
		Senha:        password,
		PerfilID:     &p.ID,
	}, 0)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("Successfully created user '%s' (%d) with profile '%s'\n", user.NomeCompleto, user.ID, p.Nome)
	return nil
}

func unlockAccount(ctx context.Context, db *database.SQLiteDB, authService *service.AuthService, cpf, password string) error {
	user, err := db.GetUserByCPF(ctx, validation.Digits(cpf))
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	if _, err := authService.ResetPassword(ctx, service.ResetPasswordInput{
		TargetID:    user.ID,
		NewPassword: password,
	}); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Printf("Account '%s' unlocked. The password must be changed on next login\n", user.NomeCompleto)
	return nil
}

func listAllUsers(ctx context.Context, db *database.SQLiteDB) error {
	users, err := db.ListUsers(ctx)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Println("No users found in database")
		return nil
	}

	fmt.Println("\nUser List:")
	fmt.Println("--------------------------------------------------------------------------------")
	fmt.Printf("%-5s %-30s %-12s %-16s %-8s %-20s\n", "ID", "Nome", "CPF", "Perfil", "Status", "Criado em")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, user := range users {
		fmt.Printf("%-5d %-30s %-12s %-16s %-8s %-20s\n",
			user.ID,
			user.NomeCompleto,
			user.CPF,
			user.NomePerfil,
			user.Status,
			user.DataCriacao.Format("2006-01-02 15:04:05"),
		)
	}
	fmt.Println("--------------------------------------------------------------------------------")
	return nil
}
