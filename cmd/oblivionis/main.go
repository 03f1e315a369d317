// oblivionis - game activity tracker
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/oblivionis/tracker/internal/api"
	"github.com/oblivionis/tracker/internal/auth"
	"github.com/oblivionis/tracker/internal/config"
	"github.com/oblivionis/tracker/internal/gateway"
	"github.com/oblivionis/tracker/internal/storage"
	"github.com/oblivionis/tracker/internal/tracker"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

var version = "dev"

const defaultConfigPath = "/etc/oblivionis/config.yml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "user":
		cmdUser(os.Args[2:])
	case "games":
		cmdGames(os.Args[2:])
	case "platforms":
		cmdPlatforms(os.Args[2:])
	case "status":
		cmdStatus(os.Args[2:])
	case "version":
		fmt.Printf("oblivionis %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: oblivionis <command> [options] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                        Start the tracker")
	fmt.Println("  user add [--admin] <username>")
	fmt.Println("                               Add a web account (prompts for password)")
	fmt.Println("  user remove <username>       Remove a web account")
	fmt.Println("  user list                    List web accounts")
	fmt.Println("  user reset <username>        Reset a web account's password")
	fmt.Println("  user admin <username>        Toggle admin status for a web account")
	fmt.Println("  games                        List tracked games")
	fmt.Println("  platforms                    List known platforms")
	fmt.Println("  status                       Show live tracker status")
	fmt.Println("  version                      Show version")
	fmt.Println("  help                         Show this help")
	fmt.Println()
	fmt.Println("Global Options:")
	fmt.Println("  --config <path>    Path to configuration file (default /etc/oblivionis/config.yml)")
	fmt.Println("  --url <url>        Base URL of the tracker server (default: derived from config)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  oblivionis serve --config /etc/oblivionis/config.yml")
	fmt.Println("  oblivionis user add --admin myuser")
	fmt.Println("  oblivionis games")
}

// cmdServe starts the tracker
func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfgPath := *configPath
	if cfgPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			cfgPath = defaultConfigPath
		} else {
			log.Fatalf("No config file found at %s. Use --config to specify a config file.", defaultConfigPath)
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Oblivionis %s starting...", version)

	// Initialize storage
	store, err := storage.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()
	log.Printf("Database initialized at %s", cfg.Database.Path)

	// Core tracker and command router
	t := tracker.New(store, cfg.Session.MinimumSeconds)
	router := tracker.NewRouter(t, cfg.Gateway.CommandPrefix, cfg.Gateway.Admins)

	// Optional embedded broker for single-binary deployments
	if cfg.Gateway.Embedded.Enabled {
		ns, err := gateway.StartEmbeddedServer(cfg.Gateway.Embedded.Port)
		if err != nil {
			log.Fatalf("Failed to start embedded gateway server: %v", err)
		}
		defer ns.Shutdown()
		cfg.Gateway.URL = ns.ClientURL()
		log.Printf("Embedded gateway server listening on %s", ns.ClientURL())
	}

	// Connect to the chat gateway
	gw, err := gateway.New(gateway.Config{
		URL:           cfg.Gateway.URL,
		SubjectPrefix: cfg.Gateway.SubjectPrefix,
		CommandPrefix: cfg.Gateway.CommandPrefix,
		Debug:         cfg.Gateway.Debug,
	}, router, t)
	if err != nil {
		log.Fatalf("Failed to connect to gateway: %v", err)
	}
	if err := gw.Start(); err != nil {
		log.Fatalf("Failed to start gateway: %v", err)
	}

	// Create auth service
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	if cfg.Auth.JWTSecret == "" {
		log.Printf("Warning: No JWT secret configured. Auth tokens will use an empty secret.")
	}

	// Create HTTP router
	apiRouter := api.NewRouter(store, t, authService)
	apiRouter.StartWebSocketHub()

	// Start HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.ListenAddr, cfg.Server.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      gzhttp.GzipHandler(apiRouter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Set up signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for signal or error
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		log.Fatalf("HTTP server error: %v", err)
	}

	// Sequential shutdown
	log.Println("Shutting down HTTP server...")
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := server.Shutdown(httpCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Stopping gateway...")
	gw.Stop()

	log.Println("Shutdown complete")
}

// CLI helper variables
var (
	baseURL = "http://localhost:8080"
	dbPath  string
)

// loadCLIConfigFromFlags loads config using pre-parsed flag values
func loadCLIConfigFromFlags(configPath, url string) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config from %s: %v\n", configPath, err)
		dbPath = "/var/lib/oblivionis/oblivionis.db"
		if url != "" {
			baseURL = url
		}
		return nil
	}

	dbPath = cfg.Database.Path
	if url != "" {
		baseURL = url
	} else {
		baseURL = fmt.Sprintf("http://%s:%d", cfg.Server.ListenAddr, cfg.Server.HTTPPort)
	}
	return cfg
}

func loadCLIConfig(args []string) (*config.Config, []string) {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the tracker server")
	fs.Parse(args)

	cfg := loadCLIConfigFromFlags(*configPath, *url)
	return cfg, fs.Args()
}

func cmdGames(args []string) {
	fs := flag.NewFlagSet("games", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the tracker server")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	var games []map[string]interface{}
	if err := getJSON("/api/games", &games); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tYEAR\tSTEAM\tALIASES")
	fmt.Fprintln(w, "--\t----\t----\t-----\t-------")

	for _, game := range games {
		id := int64(game["id"].(float64))
		name := game["name"].(string)

		year := "-"
		if y, ok := game["release_year"].(float64); ok {
			year = fmt.Sprintf("%d", int64(y))
		}
		steam := "-"
		if s, ok := game["steam_id"].(float64); ok {
			steam = fmt.Sprintf("%d", int64(s))
		}
		aliases := 0
		if a, ok := game["aliases"].([]interface{}); ok {
			aliases = len(a)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", id, name, year, steam, aliases)
	}

	w.Flush()
}

func cmdPlatforms(args []string) {
	fs := flag.NewFlagSet("platforms", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the tracker server")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	var platforms []map[string]interface{}
	if err := getJSON("/api/platforms", &platforms); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ABBREVIATION\tNAME")
	fmt.Fprintln(w, "------------\t----")

	for _, platform := range platforms {
		abbr := platform["abbreviation"].(string)
		name := "-"
		if n, ok := platform["name"].(string); ok {
			name = n
		}
		fmt.Fprintf(w, "%s\t%s\n", abbr, name)
	}

	w.Flush()
}

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "path to configuration file")
	url := fs.String("url", "", "base URL of the tracker server")
	fs.Parse(args)

	loadCLIConfigFromFlags(*configPath, *url)

	var status map[string]interface{}
	if err := getJSON("/api/status", &status); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	manual := int64(status["manual_sessions"].(float64))
	clients := int64(status["websocket_clients"].(float64))
	fmt.Printf("Manual sessions running: %d\n", manual)
	fmt.Printf("WebSocket clients: %d\n", clients)
}

// cmdUser handles web account subcommands
func cmdUser(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: user subcommand required: add, remove, list, reset, admin\n")
		os.Exit(1)
	}

	subCmd := args[0]
	_, remaining := loadCLIConfig(args[1:])

	store, err := storage.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	switch subCmd {
	case "add":
		err = cmdUserAdd(ctx, store, remaining)
	case "remove":
		err = cmdUserRemove(ctx, store, remaining)
	case "list":
		err = cmdUserList(ctx, store)
	case "reset":
		err = cmdUserReset(ctx, store, remaining)
	case "admin":
		err = cmdUserAdmin(ctx, store, remaining)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown user command: %s (use: add, remove, list, reset, admin)\n", subCmd)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdUserAdd(ctx context.Context, store *storage.Store, args []string) error {
	fs := flag.NewFlagSet("user add", flag.ExitOnError)
	isAdmin := fs.Bool("admin", false, "create as admin account")
	fs.Parse(args)

	remaining := fs.Args()
	if len(remaining) < 1 {
		return fmt.Errorf("usage: oblivionis user add [--admin] <username>")
	}
	username := remaining[0]

	if existing, err := store.GetWebUserByUsername(ctx, username); err == nil && existing != nil {
		return fmt.Errorf("account '%s' already exists", username)
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := store.CreateWebUser(ctx, username, hash, *isAdmin); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	roleStr := "user"
	if *isAdmin {
		roleStr = "admin"
	}
	fmt.Printf("Account '%s' created successfully (role: %s)\n", username, roleStr)
	return nil
}

func cmdUserRemove(ctx context.Context, store *storage.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: oblivionis user remove <username>")
	}
	username := args[0]

	if err := store.DeleteWebUser(ctx, username); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}

	fmt.Printf("Account '%s' removed\n", username)
	return nil
}

func cmdUserList(ctx context.Context, store *storage.Store) error {
	users, err := store.ListWebUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No accounts configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tROLE\tLAST_LOGIN")
	fmt.Fprintln(w, "--------\t----\t----------")

	for _, user := range users {
		role := "user"
		if user.IsAdmin {
			role = "admin"
		}
		lastLogin := "never"
		if user.LastLogin != nil {
			lastLogin = user.LastLogin.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", user.Username, role, lastLogin)
	}
	return w.Flush()
}

func cmdUserReset(ctx context.Context, store *storage.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: oblivionis user reset <username>")
	}
	username := args[0]

	user, err := store.GetWebUserByUsername(ctx, username)
	if err != nil || user == nil {
		return fmt.Errorf("account not found: %s", username)
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := store.UpdateWebUserPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	fmt.Printf("Password reset for '%s'\n", username)
	return nil
}

func cmdUserAdmin(ctx context.Context, store *storage.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: oblivionis user admin <username>")
	}
	username := args[0]

	user, err := store.GetWebUserByUsername(ctx, username)
	if err != nil || user == nil {
		return fmt.Errorf("account not found: %s", username)
	}

	newAdminStatus := !user.IsAdmin
	if err := store.UpdateWebUserAdmin(ctx, user.ID, newAdminStatus); err != nil {
		return fmt.Errorf("failed to update admin status: %w", err)
	}

	if newAdminStatus {
		fmt.Printf("Account '%s' is now an admin\n", username)
	} else {
		fmt.Printf("Account '%s' is no longer an admin\n", username)
	}
	return nil
}

// promptPassword reads and confirms a password from the terminal
func promptPassword() (string, error) {
	fmt.Print("Enter password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password), nil
}

func getJSON(path string, target interface{}) error {
	url := baseURL + path
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
