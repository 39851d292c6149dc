// Package main provides the entry point for the codelane CLI.
// It dispatches between the interactive login flow, credential status and
// logout, and the recorded-session tooling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/codelane/codelane/internal/auth/chatgpt"
	"github.com/codelane/codelane/internal/auth/helper"
	"github.com/codelane/codelane/internal/auth/login"
	"github.com/codelane/codelane/internal/buildinfo"
	"github.com/codelane/codelane/internal/config"
	"github.com/codelane/codelane/internal/credstore"
	"github.com/codelane/codelane/internal/logging"
	"github.com/codelane/codelane/internal/session"
	"github.com/codelane/codelane/internal/tui"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Exit codes surfaced to scripts.
const (
	exitOK      = 0
	exitFailure = 1
	exitAborted = 2
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	var (
		doLogin     bool
		doLogout    bool
		doStatus    bool
		doSessions  bool
		pickSession bool
		nameTarget  string
		nameTitle   string
		limit       int
		asJSON      bool
		helperPath  string
		configPath  string
		showVersion bool
	)

	flag.BoolVar(&doLogin, "login", false, "Log in through the interactive helper")
	flag.BoolVar(&doLogout, "logout", false, "Remove persisted credentials")
	flag.BoolVar(&doStatus, "status", false, "Show login status")
	flag.BoolVar(&doSessions, "sessions", false, "List recent recorded sessions")
	flag.BoolVar(&pickSession, "pick-session", false, "Pick a recorded session interactively")
	flag.StringVar(&nameTarget, "name", "", "Session id (full or prefix) or rollout path to rename")
	flag.StringVar(&nameTitle, "title", "", "Title to assign with -name")
	flag.IntVar(&limit, "n", 10, "Maximum number of sessions to list")
	flag.BoolVar(&asJSON, "json", false, "Output session list as JSON")
	flag.StringVar(&helperPath, "helper", "", "Override the login helper binary path")
	flag.StringVar(&configPath, "config", "", "Configuration file path")
	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debugf(".env not loaded: %v", err)
	}

	if showVersion {
		fmt.Printf("codelane %s (%s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		os.Exit(exitOK)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(exitFailure)
	}
	if err = logging.ConfigureLogOutput(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure logging: %v\n", err)
		os.Exit(exitFailure)
	}

	switch {
	case doLogin:
		os.Exit(runLogin(cfg, helperPath))
	case doLogout:
		os.Exit(runLogout(cfg))
	case doStatus:
		os.Exit(runStatus(cfg))
	case nameTarget != "":
		os.Exit(runNameSession(cfg, nameTarget, nameTitle))
	case doSessions:
		os.Exit(runListSessions(cfg, limit, asJSON))
	case pickSession:
		os.Exit(runPickSession(cfg))
	default:
		flag.Usage()
		os.Exit(exitFailure)
	}
}

// runLogin executes one interactive login attempt and maps its outcome onto
// the process exit code: 0 success, 2 user abort, 1 anything else.
func runLogin(cfg *config.Config, helperOverride string) int {
	if !helper.Available() {
		fmt.Println(login.UserMessage(login.ErrUnsupportedOS))
		return exitFailure
	}

	binaryPath := helperOverride
	if binaryPath == "" {
		binaryPath = cfg.HelperPath
	}

	flow := &login.Flow{
		Helper:        helper.NewLauncher(binaryPath),
		Exchanger:     chatgpt.NewAuthService(cfg),
		Store:         credstore.NewStore(cfg.AuthFile),
		HelperTimeout: time.Duration(cfg.HelperTimeoutSeconds) * time.Second,
	}

	fmt.Println("Opening the codelane sign-in window...")
	outcome := flow.Run(context.Background())

	if outcome.Aborted() {
		fmt.Println(login.UserMessage(outcome.Err))
		return exitAborted
	}
	if !outcome.Succeeded() {
		fmt.Println(login.UserMessage(outcome.Err))
		return exitFailure
	}

	switch {
	case outcome.Email != "" && outcome.Plan != "":
		fmt.Printf("Logged in as %s (%s)\n", outcome.Email, outcome.Plan)
	case outcome.Email != "":
		fmt.Printf("Logged in as %s\n", outcome.Email)
	default:
		fmt.Println("Login successful")
	}
	return exitOK
}

func runLogout(cfg *config.Config) int {
	store := credstore.NewStore(cfg.AuthFile)
	if err := store.Erase(); err != nil {
		fmt.Fprintf(os.Stderr, "logout failed: %v\n", err)
		return exitFailure
	}
	fmt.Println("Logged out")
	return exitOK
}

// runStatus reports login state derived solely from the persisted credential
// file; environment-supplied secrets are deliberately ignored.
func runStatus(cfg *config.Config) int {
	store := credstore.NewStore(cfg.AuthFile)
	cred, err := store.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "status check failed: %v\n", err)
		return exitFailure
	}
	if cred == nil {
		fmt.Println("Not logged in")
		return exitFailure
	}

	switch {
	case cred.Tokens != nil && cred.Tokens.Email != "" && cred.Tokens.PlanType != "":
		fmt.Printf("Logged in as %s (%s)\n", cred.Tokens.Email, cred.Tokens.PlanType)
	case cred.Tokens != nil && cred.Tokens.Email != "":
		fmt.Printf("Logged in as %s\n", cred.Tokens.Email)
	case cred.APIKey != "":
		fmt.Println("Logged in with an API key")
	default:
		fmt.Println("Logged in")
	}
	return exitOK
}

func runListSessions(cfg *config.Config, limit int, asJSON bool) int {
	entries, err := session.List(cfg.SessionsDir, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list sessions: %v\n", err)
		return exitFailure
	}

	if asJSON {
		type item struct {
			ID           string `json:"id"`
			Timestamp    string `json:"timestamp"`
			Name         string `json:"name,omitempty"`
			Path         string `json:"path"`
			WorkingPath  string `json:"working_path,omitempty"`
			LastModified int64  `json:"last_modified,omitempty"`
		}
		items := make([]item, 0, len(entries))
		for _, e := range entries {
			it := item{
				ID:          e.ID,
				Timestamp:   e.Timestamp,
				Name:        e.Name,
				Path:        e.Path,
				WorkingPath: e.Cwd,
			}
			if !e.LastModified.IsZero() {
				it.LastModified = e.LastModified.Unix()
			}
			items = append(items, it)
		}
		out, errMarshal := json.MarshalIndent(items, "", "  ")
		if errMarshal != nil {
			fmt.Fprintf(os.Stderr, "failed to encode sessions: %v\n", errMarshal)
			return exitFailure
		}
		fmt.Println(string(out))
		return exitOK
	}

	for _, e := range entries {
		id8 := e.ID
		if len(id8) > 8 {
			id8 = id8[:8]
		}
		fmt.Printf("%s  %s  %s\n", session.CompactTime(e.Timestamp), id8, e.Title())
		if e.Cwd != "" {
			fmt.Printf("    cwd: %s\n", session.ShortenPath(e.Cwd))
		}
		fmt.Printf("    └ %s\n", session.ShortenPath(e.Path))
	}
	return exitOK
}

func runNameSession(cfg *config.Config, idOrPath, title string) int {
	if title == "" {
		fmt.Fprintln(os.Stderr, "a -title is required with -name")
		return exitFailure
	}
	path, err := session.Resolve(cfg.SessionsDir, idOrPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailure
	}
	if err = session.SetName(path, title); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailure
	}
	fmt.Printf("named: %s\n", path)
	return exitOK
}

func runPickSession(cfg *config.Config) int {
	entries, err := session.List(cfg.SessionsDir, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list sessions: %v\n", err)
		return exitFailure
	}
	selected, err := tui.RunSessionPicker(entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitFailure
	}
	if selected == "" {
		return exitAborted
	}
	fmt.Println(selected)
	return exitOK
}
