package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/campus_food/internal/transport"
	"github.com/Skotchmaster/campus_food/pkg/authclient"
	"github.com/Skotchmaster/campus_food/pkg/config"
	"github.com/Skotchmaster/campus_food/pkg/logging"
)

const usage = `usage: campus [flags] <command> [args]

commands:
  login [username]          sign in and store the session
  register [flags]          create an account (see campus register -h)
  logout                    revoke the session
  whoami                    show the signed-in account
  merchant <id>             show a merchant
  stalls <merchant-id>      list a merchant's stalls
  stall <id>                show a stall
  dishes <stall-id>         list a stall's dishes
  dish <id>                 show a dish
  search <query> [page]     search dishes
  page <path>               check whether the session may open a page
`

func main() {
	_ = godotenv.Load()

	server := flag.String("server", config.EnvDefault("CAMPUS_API_URL", "http://localhost:5000/api"), "API base URL")
	sessionFile := flag.String("session", config.EnvDefault("CAMPUS_SESSION_FILE", "campus-session.db"), "session file")
	logLevel := flag.String("log-level", config.EnvDefault("LOG_LEVEL", "warn"), "log level")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := logging.NewWithWriter(os.Stderr, *logLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	store, err := authclient.OpenBoltStore(*sessionFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("close session file", "error", err)
		}
	}()

	agent, err := authclient.NewAgent(ctx, *server, store, authclient.WithNavigator(authclient.NavigatorFunc(redirect)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, agent, args[0], args[1:]); err != nil {
		// the navigator has already reported an expired session
		if !errors.Is(err, errSessionExpired) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		_ = store.Close()
		os.Exit(1)
	}
}

var errSessionExpired = errors.New("session expired")

func redirect(page string) {
	switch page {
	case authclient.UserLoginPage:
		fmt.Fprintln(os.Stderr, "Not signed in. Run 'campus login'.")
	case authclient.AdminLoginPage:
		fmt.Fprintln(os.Stderr, "Admin access required. Run 'campus login' with an admin account.")
	default:
		fmt.Fprintf(os.Stderr, "Redirected to %s\n", page)
	}
}

func run(ctx context.Context, agent *authclient.Agent, cmd string, args []string) error {
	switch cmd {
	case "login":
		return runLogin(ctx, agent, args)
	case "register":
		return runRegister(ctx, agent, args)
	case "logout":
		if err := agent.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return get(ctx, agent, "/user")
	case "merchant":
		return getByID(ctx, agent, args, "/merchants/%s")
	case "stalls":
		return getByID(ctx, agent, args, "/merchants/%s/stalls")
	case "stall":
		return getByID(ctx, agent, args, "/stalls/%s")
	case "dishes":
		return getByID(ctx, agent, args, "/stalls/%s/dishes")
	case "dish":
		return getByID(ctx, agent, args, "/dishes/%s")
	case "search":
		if len(args) == 0 {
			return fmt.Errorf("search needs a query")
		}
		q := url.Values{"q": {args[0]}}
		if len(args) > 1 {
			q.Set("page", args[1])
		}
		return get(ctx, agent, "/dishes/search?"+q.Encode())
	case "page":
		if len(args) != 1 {
			return fmt.Errorf("page needs a path")
		}
		if to := authclient.NewRouter(agent).Check(args[0]); to == "" {
			fmt.Println("allowed")
		}
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runLogin(ctx context.Context, agent *authclient.Agent, args []string) error {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		if username, err = readInput("Username: "); err != nil {
			return err
		}
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	p, err := agent.Login(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s).\n", p.Username, p.Role)
	return nil
}

func runRegister(ctx context.Context, agent *authclient.Agent, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var in transport.RegisterRequest
	fs.StringVar(&in.Username, "username", "", "account name")
	fs.BoolVar(&in.IsAdmin, "admin", false, "register an admin account")
	fs.StringVar(&in.RealName, "real-name", "", "real name")
	fs.StringVar(&in.StudentID, "student-id", "", "student id")
	fs.StringVar(&in.College, "college", "", "college")
	fs.StringVar(&in.Major, "major", "", "major")
	fs.StringVar(&in.Grade, "grade", "", "grade")
	fs.StringVar(&in.Phone, "phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if in.Username == "" {
		if in.Username, err = readInput("Username: "); err != nil {
			return err
		}
	}
	if in.Password, err = readPassword("Password: "); err != nil {
		return err
	}
	confirm, err := readPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if confirm != in.Password {
		return fmt.Errorf("passwords do not match")
	}

	res, err := agent.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (id %d, %s). Run 'campus login' to sign in.\n", res.Username, res.UserID, res.Role)
	return nil
}

func getByID(ctx context.Context, agent *authclient.Agent, args []string, pattern string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one id")
	}
	return get(ctx, agent, fmt.Sprintf(pattern, url.PathEscape(args[0])))
}

func get(ctx context.Context, agent *authclient.Agent, endpoint string) error {
	env, err := agent.Call(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if env == nil {
		return errSessionExpired
	}
	return printData(env.Data)
}

func printData(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}
