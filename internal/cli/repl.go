package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// execIface is the command surface the shell needs. *App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	Load(ctx context.Context, path string) error
	List(ctx context.Context, kind models.Kind) error
	Add(ctx context.Context, kind models.Kind, pairs []string) error
	Update(ctx context.Context, kind models.Kind, key string, pairs []string) error
	Delete(ctx context.Context, kind models.Kind, key string) error
	TrashList(ctx context.Context) error
	Restore(ctx context.Context, id int64) error
	Purge(ctx context.Context) error
	AuditTail(ctx context.Context, n int) error
	AuditExport(ctx context.Context) error
	Stats(ctx context.Context) error
	Health(ctx context.Context) error
}

const shellHelp = `Available commands:
  load                         reload and merge both stores
  list <kind>                  list entities (vehicles, purchases, anomalies, credentials)
  add <kind> [name=value ...]  add an entity, prompting for fields when none are given
  set <kind> <key> name=value  change fields of an entity
  delete <kind> <key>          move an entity to the trash
  trash | restore <id> | purge
  audit [n] | export
  stats | health
  exit | quit`

// runREPL reads commands from scanner until EOF, "exit" or "quit". The
// prompt shows statusFn. Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, fields func() ([]string, error), w io.Writer) {
	for {
		fmt.Fprintf(w, "rk %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			fmt.Fprintln(w, shellHelp)

		case "load":
			err = a.Load(ctx, "")

		case "l", "list":
			var kind models.Kind
			if kind, err = kindArg(args); err == nil {
				err = a.List(ctx, kind)
			}

		case "add":
			var kind models.Kind
			if kind, err = kindArg(args); err != nil {
				break
			}
			pairs := args[1:]
			if len(pairs) == 0 && fields != nil {
				if pairs, err = fields(); err != nil {
					break
				}
			}
			err = a.Add(ctx, kind, pairs)

		case "set":
			var kind models.Kind
			if kind, err = kindArg(args); err != nil {
				break
			}
			if len(args) < 3 {
				fmt.Fprintln(w, "Usage: set <kind> <key> name=value ...")
				continue
			}
			err = a.Update(ctx, kind, args[1], args[2:])

		case "delete":
			var kind models.Kind
			if kind, err = kindArg(args); err != nil {
				break
			}
			if len(args) < 2 {
				fmt.Fprintln(w, "Usage: delete <kind> <key>")
				continue
			}
			err = a.Delete(ctx, kind, strings.Join(args[1:], " "))

		case "trash":
			err = a.TrashList(ctx)

		case "restore":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: restore <id>")
				continue
			}
			var id int64
			if id, err = strconv.ParseInt(args[0], 10, 64); err == nil {
				err = a.Restore(ctx, id)
			}

		case "purge":
			err = a.Purge(ctx)

		case "audit":
			n := 20
			if len(args) > 0 {
				if n, err = strconv.Atoi(args[0]); err != nil {
					break
				}
			}
			err = a.AuditTail(ctx, n)

		case "export":
			err = a.AuditExport(ctx)

		case "stats":
			err = a.Stats(ctx)

		case "health":
			err = a.Health(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(w, "error:", err)
		}
	}
}

func kindArg(args []string) (models.Kind, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("missing kind, one of %v", models.AllKinds)
	}
	return models.ParseKind(args[0])
}

// Shell runs the interactive loop on the app's input, probing the primary
// in the background so the prompt shows whether saves reach it.
func (a *App) Shell(ctx context.Context, checkEvery time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.probe(ctx)
	go a.StartReachabilityWatcher(ctx, checkEvery)

	fmt.Fprintln(a.out, "recordkeeper shell (type 'help' for commands)")
	sc := bufio.NewScanner(a.in)
	runREPL(ctx, a, func() string { return string(a.Mode()) }, sc,
		func() ([]string, error) { return GetFields(sc, a.out) }, a.out)
}
