package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notification-sync/internal/app"
	"github.com/nhle/notification-sync/internal/credential"
	"github.com/nhle/notification-sync/internal/digest"
	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/theme"
)

// commandTimeout bounds each one-shot command.
const commandTimeout = 30 * time.Second

func (rt *runtime) watch() error {
	identity, err := rt.creds.LoadIdentity()
	if err != nil && !errors.Is(err, credential.ErrNoSession) {
		return err
	}
	if err == nil {
		rt.engine.Activate(identity)
	}

	m := app.New(app.Options{
		Engine:        rt.engine,
		Identities:    rt.creds,
		Issuer:        rt.client,
		Logger:        rt.logger,
		ConfigPath:    rt.cfgPath,
		Config:        *rt.cfg,
		Probe:         rt.probe,
		DriftInterval: rt.cfg.Poll.Interval() / 2,
	})

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (rt *runtime) list(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	unreadOnly := fs.Bool("unread", false, "only print unread notifications")
	_ = fs.Parse(args)

	ctx, cancel := rt.commandContext()
	defer cancel()

	if _, err := rt.activate(); err != nil {
		return err
	}
	if err := rt.refresh(ctx); err != nil {
		return err
	}

	unread, read := rt.engine.Store().Partitioned()
	records := unread
	if !*unreadOnly {
		records = append(records, read...)
	}
	return printNotifications(os.Stdout, records, time.Now())
}

func printNotifications(w io.Writer, records []model.Notification, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range records {
		marker := " "
		if !n.Read {
			marker = "●"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			marker,
			theme.KindStyle(n.Kind).Icon,
			n.ID,
			n.Title,
			now.Sub(n.CreatedAt).Round(time.Minute),
		)
	}
	return tw.Flush()
}

func (rt *runtime) count() error {
	ctx, cancel := rt.commandContext()
	defer cancel()

	if _, err := rt.activate(); err != nil {
		return err
	}
	n, err := rt.engine.ServerUnreadCount(ctx)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func (rt *runtime) read(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: notifyctl read <id>")
	}

	ctx, cancel := rt.commandContext()
	defer cancel()

	if _, err := rt.activate(); err != nil {
		return err
	}
	if err := rt.refresh(ctx); err != nil {
		return err
	}

	ref, err := rt.engine.ActivateNotification(ctx, args[0])
	if ref != "" {
		fmt.Println(ref)
	}
	return err
}

func (rt *runtime) readAll() error {
	ctx, cancel := rt.commandContext()
	defer cancel()

	if _, err := rt.activate(); err != nil {
		return err
	}
	return rt.engine.MarkAllRead(ctx)
}

func (rt *runtime) digest(args []string) error {
	fs := flag.NewFlagSet("digest", flag.ExitOnError)
	out := fs.String("o", "", "write to file instead of stdout")
	_ = fs.Parse(args)

	ctx, cancel := rt.commandContext()
	defer cancel()

	identity, err := rt.activate()
	if err != nil {
		return err
	}
	if err := rt.refresh(ctx); err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	return digest.Write(w, identity, rt.engine.Store().All(), time.Now())
}

func (rt *runtime) login(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	userID := fs.String("user", "", "user id")
	token := fs.String("token", "", "bearer token; empty requests a development token")
	_ = fs.Parse(args)

	if *userID == "" {
		fs.Usage()
		return errors.New("-user is required")
	}

	if *token == "" {
		ctx, cancel := rt.commandContext()
		defer cancel()

		issued, err := rt.client.IssueToken(ctx, *userID)
		if err != nil {
			return err
		}
		*token = issued
	}

	if err := rt.creds.SaveIdentity(model.Identity{UserID: *userID, Token: *token}); err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", *userID)
	return nil
}

func (rt *runtime) logout() error {
	if err := rt.creds.DeleteIdentity(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

// commandContext is cancelled on interrupt or after commandTimeout.
func (rt *runtime) commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
