// Package cli implements the operator command line: minting and inspecting
// link tokens and issuing admin bearer tokens.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dmitrijs2005/filestream/internal/cryptox"
	"github.com/dmitrijs2005/filestream/internal/server/auth"
	"github.com/dmitrijs2005/filestream/internal/server/config"
)

const (
	envSecretKey   = config.EnvPrefix + "SECRET_KEY"
	envAdminSecret = config.EnvPrefix + "ADMIN_SECRET"

	usage = `Usage:
  filestream-cli encode <id>...          mint link tokens for object ids
  filestream-cli decode <token>...       show the object id behind tokens
  filestream-cli admin-token [-sub name] [-validity 1h]
                                         issue an admin bearer token

Secrets are read from ` + envSecretKey + ` and ` + envAdminSecret + `,
or prompted for when unset.`
)

var errUsage = errors.New("usage")

type App struct {
	out io.Writer
	err io.Writer
}

func NewApp(out, errOut io.Writer) *App {
	return &App{out: out, err: errOut}
}

// Run executes one command and returns the process exit code.
func (a *App) Run(args []string) int {
	if err := a.run(args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(a.err, usage)
			return 2
		}
		fmt.Fprintln(a.err, "error:", err)
		return 1
	}
	return 0
}

func (a *App) run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "encode":
		return a.encode(rest)
	case "decode":
		return a.decode(rest)
	case "admin-token":
		return a.adminToken(rest)
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		return errUsage
	}
}

func (a *App) codec() (*cryptox.TokenCodec, error) {
	s, err := secret(a.err, envSecretKey, "Link secret")
	if err != nil {
		return nil, err
	}
	return cryptox.NewTokenCodec(s)
}

func (a *App) encode(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("bad id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}

	codec, err := a.codec()
	if err != nil {
		return err
	}

	for _, id := range ids {
		tok, err := codec.EncodeID(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d\t%s\n", id, tok)
	}
	return nil
}

func (a *App) decode(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	codec, err := a.codec()
	if err != nil {
		return err
	}

	var failed bool
	for _, tok := range args {
		id, err := codec.DecodeID(tok)
		if err != nil {
			fmt.Fprintf(a.out, "%s\tinvalid\n", tok)
			failed = true
			continue
		}
		fmt.Fprintf(a.out, "%s\t%d\n", tok, id)
	}
	if failed {
		return errors.New("some tokens did not decode")
	}
	return nil
}

func (a *App) adminToken(args []string) error {
	fs := flag.NewFlagSet("admin-token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	subject := fs.String("sub", "admin", "token subject")
	validity := fs.Duration("validity", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return errUsage
	}
	if *validity <= 0 {
		return fmt.Errorf("validity must be positive, got %s", *validity)
	}

	s, err := secret(a.err, envAdminSecret, "Admin secret")
	if err != nil {
		return err
	}

	tok, err := auth.GenerateToken(*subject, []byte(s), *validity)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, tok)
	return nil
}
