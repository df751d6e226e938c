// Command bulletinctl moderates the bulletin from a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ms-bulletin/internal/client"
	"ms-bulletin/internal/config"
	"ms-bulletin/internal/confirm"
	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/models"
	"ms-bulletin/internal/notify"
)

const usage = `usage: bulletinctl [flags] <command> [args]

commands:
  login            store an admin token
  logout           forget the admin token
  list             approved events
  pending          events awaiting approval
  upcoming         today / this week / this month
  approve <id>     publish an event
  delete <id>      remove an event
  watch            follow lifecycle notifications from Kafka
`

type app struct {
	client    *client.Client
	tokenFile string
	yes       bool
	cfg       *config.Config
}

func main() {
	_ = godotenv.Load(".env.local")

	home, _ := os.UserHomeDir()
	var (
		baseURL   = flag.String("url", envOr("BULLETIN_URL", "http://localhost:3000"), "bulletin server origin")
		tokenFile = flag.String("token-file", filepath.Join(home, ".bulletinctl-token"), "where the admin token is kept")
		yes       = flag.Bool("yes", false, "skip confirmation prompts")
		timeout   = flag.Duration("timeout", 10*time.Second, "request timeout")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage); flag.PrintDefaults() }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := client.New(*baseURL, *timeout)
	if err != nil {
		fail(err)
	}
	a := &app{client: c, tokenFile: *tokenFile, yes: *yes, cfg: config.Load()}
	if tok, err := os.ReadFile(a.tokenFile); err == nil {
		c.SetToken(strings.TrimSpace(string(tok)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if client.IsAuthError(err) {
			fmt.Fprintln(os.Stderr, "not logged in or session expired; run: bulletinctl login")
		}
		fail(err)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout(ctx)
	case "list":
		evs, err := a.client.ApprovedEvents(ctx)
		if err != nil {
			return err
		}
		printEvents(evs)
		return nil
	case "pending":
		evs, err := a.client.AdminEvents(ctx)
		if err != nil {
			return err
		}
		var pending []models.Event
		for _, ev := range evs {
			if !ev.Approved {
				pending = append(pending, ev)
			}
		}
		printEvents(pending)
		return nil
	case "upcoming":
		u, err := a.client.Upcoming(ctx)
		if err != nil {
			return err
		}
		for _, section := range []struct {
			name   string
			events []models.Event
		}{{"Today", u.Today}, {"This week", u.Week}, {"This month", u.Month}} {
			fmt.Printf("== %s ==\n", section.name)
			printEvents(section.events)
		}
		return nil
	case "approve":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		if ok, err := a.confirm(ctx, fmt.Sprintf("Approve event %s?", id)); !ok {
			return err
		}
		if err := a.client.ApproveEvent(ctx, id); err != nil {
			return err
		}
		fmt.Println("Event approved")
		return nil
	case "delete":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		if ok, err := a.confirm(ctx, fmt.Sprintf("Delete event %s? This cannot be undone.", id)); !ok {
			return err
		}
		if err := a.client.DeleteEvent(ctx, id); err != nil {
			return err
		}
		fmt.Println("Deleted")
		return nil
	case "watch":
		return a.watch(ctx)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) login(ctx context.Context) error {
	fmt.Fprint(os.Stderr, "Admin password: ")
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errors.New("no password read")
	}
	a.client.SetToken("")
	if err := a.client.Login(ctx, password); err != nil {
		return err
	}
	if err := os.WriteFile(a.tokenFile, []byte(a.client.Token()), 0600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Println("Logged in")
	return nil
}

func (a *app) logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	if rmErr := os.Remove(a.tokenFile); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		return rmErr
	}
	return err
}

// confirm reports false with a nil error when the operator declines.
func (a *app) confirm(ctx context.Context, prompt string) (bool, error) {
	if a.yes {
		return true, nil
	}
	ok, err := confirm.Ask(ctx, prompt)
	if err == nil && !ok {
		fmt.Fprintln(os.Stderr, "Cancelled")
	}
	return ok, err
}

func (a *app) watch(ctx context.Context) error {
	log := logger.NewLogger(logger.Options{MinLevel: logger.ParseLevel(a.cfg.Log.Level), Output: os.Stderr})
	defer log.Close()

	consumer := notify.NewConsumer(a.cfg.Kafka.Brokers, a.cfg.Kafka.EventsTopic, "bulletinctl-watch", log)
	defer consumer.Close()

	return consumer.Run(ctx, func(n models.EventNotification) {
		when := "-"
		if n.Timestamp != nil {
			when = n.Timestamp.Format("Mon Jan 2 15:04")
		}
		fmt.Printf("%s  %-16s %s  %q  %s\n", n.OccurredAt.Format(time.RFC3339), n.Action, n.EventID, n.Title, when)
	})
}

func printEvents(evs []models.Event) {
	if len(evs) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, ev := range evs {
		status := "approved"
		if !ev.Approved {
			status = "pending"
		}
		fmt.Printf("  %s  %s  %-8s %s", ev.ID, ev.Timestamp.Local().Format("Mon Jan 2 15:04"), status, ev.Title)
		if ev.Location != "" {
			fmt.Printf(" @ %s", ev.Location)
		}
		fmt.Println()
	}
}

func oneID(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", errors.New("expected exactly one event id")
	}
	return args[0], nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
