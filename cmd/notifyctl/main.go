// Command notifyctl follows the notifications of one user: an interactive
// view that stays in sync with the service, plus one-shot commands for
// scripting.
package main

import (
	"flag"
	"fmt"
	"os"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: notifyctl [-config path] <command> [flags]

Commands:
  watch             interactive notification view (default)
  list [-unread]    print notifications, unread first
  count             print the unread count reported by the service
  read <id>         mark one notification read and print its related entity
  read-all          mark every notification read
  digest [-o file]  write unread notifications as a MIME mail message
  login -user id    store credentials; a development token is requested when -token is empty
  logout            forget stored credentials
`)
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config.yaml")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	name := "watch"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	switch name {
	case "help", "-h", "--help":
		usage()
		return
	case "watch", "list", "count", "read", "read-all", "digest", "login", "logout":
	default:
		fmt.Fprintf(os.Stderr, "notifyctl: unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	rt, err := newRuntime(*configPath, name == "watch")
	if err != nil {
		fmt.Fprintf(os.Stderr, "notifyctl: %v\n", err)
		os.Exit(1)
	}
	defer rt.close()

	var runErr error
	switch name {
	case "watch":
		runErr = rt.watch()
	case "list":
		runErr = rt.list(args)
	case "count":
		runErr = rt.count()
	case "read":
		runErr = rt.read(args)
	case "read-all":
		runErr = rt.readAll()
	case "digest":
		runErr = rt.digest(args)
	case "login":
		runErr = rt.login(args)
	case "logout":
		runErr = rt.logout()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "notifyctl %s: %v\n", name, runErr)
		rt.close()
		os.Exit(1)
	}
}
