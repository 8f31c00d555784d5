package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/curnce/curnce-client/auth"
	"github.com/curnce/curnce-client/gateway"
	clienterrors "github.com/curnce/curnce-client/internal/errors"
	"github.com/curnce/curnce-client/resources"
	"github.com/curnce/curnce-client/session"
	"github.com/curnce/curnce-client/token/refresh"
)

type app struct {
	gw        *gateway.Client
	sessions  *session.Manager
	auth      *auth.Context
	resources *resources.Client
	output    string
	raw       bool
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "verify":
		if len(args) != 1 {
			return fmt.Errorf("verify needs the 6 digit code")
		}
		user, err := a.auth.VerifyTwoFactor(ctx, args[0])
		if err != nil {
			return friendly(err)
		}
		fmt.Printf("Signed in as %s (%s)\n", user.Email, user.Role)
		return nil
	case "logout":
		return a.auth.Logout(ctx)
	case "whoami":
		user, err := a.auth.Check(ctx)
		if err != nil {
			return friendly(err)
		}
		if user == nil {
			fmt.Println("Not signed in")
			return nil
		}
		if err := printJSON(user); err != nil {
			return err
		}
		if user.IsAdmin() {
			fmt.Fprintln(os.Stderr, "You can manage members and billing for this tenant.")
		}
		a.printTokenExpiry()
		return nil
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("get needs a path, for example /accounts")
		}
		return a.request(ctx, resolvePath(args[0]), gateway.Options{Method: http.MethodGet, Raw: a.raw})
	case "post":
		if len(args) != 2 {
			return fmt.Errorf("post needs a path and a JSON body")
		}
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("body is not valid JSON")
		}
		return a.request(ctx, resolvePath(args[0]), gateway.Options{Method: http.MethodPost, Body: json.RawMessage(args[1]), Raw: a.raw})
	case "routes":
		names := make([]string, 0, len(gateway.RouteFamilies))
		for name := range gateway.RouteFamilies {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%-14s %s\n", name, gateway.RouteFamilies[name])
		}
		return nil
	case "export":
		if len(args) != 1 {
			return fmt.Errorf("export needs a format: csv, pdf or xlsx")
		}
		export, err := a.resources.Ledger.Export(ctx, resources.ExportFormat(args[0]))
		if err != nil {
			return friendly(err)
		}
		path := a.output
		if path == "" {
			path = export.Filename
		}
		return writeFile(path, export.Data)
	case "upload":
		if len(args) != 2 {
			return fmt.Errorf("upload needs a ticket id and a file")
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		attachment, err := a.resources.Support.Upload(ctx, args[0], filepath.Base(args[1]), data)
		if err != nil {
			return friendly(err)
		}
		return printJSON(attachment)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("login needs an email and optionally a password")
	}
	password := ""
	if len(args) == 2 {
		password = args[1]
	} else {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	result, err := a.auth.Login(ctx, args[0], password)
	if err != nil {
		return friendly(err)
	}
	if result.TwoFactorPending {
		fmt.Println("Two-factor code required. Run `curnce verify <code>`.")
		return nil
	}
	fmt.Printf("Signed in as %s (%s)\n", result.User.Email, result.User.Role)
	return nil
}

func (a *app) request(ctx context.Context, path string, opts gateway.Options) error {
	resp, err := a.gw.Do(ctx, path, opts)
	if err != nil {
		return friendly(err)
	}
	switch resp.Kind {
	case gateway.KindJSON:
		var out bytes.Buffer
		if err := json.Indent(&out, resp.JSON, "", "  "); err != nil {
			return err
		}
		fmt.Println(out.String())
	case gateway.KindText:
		fmt.Println(resp.Text)
	default:
		if a.output == "" && resp.Filename() == "" {
			_, err := os.Stdout.Write(resp.Data)
			return err
		}
		path := a.output
		if path == "" {
			path = resp.Filename()
		}
		return writeFile(path, resp.Data)
	}
	return nil
}

func (a *app) printTokenExpiry() {
	tok := a.sessions.Token()
	if tok == nil || tok.Expiry.IsZero() {
		return
	}
	note := ""
	if refresh.NeedsRefresh(tok.AccessToken, time.Minute) {
		note = " (the next request will refresh it)"
	}
	fmt.Fprintf(os.Stderr, "Access token expires %s%s\n", tok.Expiry.Local().Format(time.RFC1123), note)
}

// friendly replaces an HTTP error with the backend's own message.
func friendly(err error) error {
	var httpErr *clienterrors.HTTPError
	if clienterrors.As(err, &httpErr) && !clienterrors.Is(err, clienterrors.ErrSessionExpired) {
		return fmt.Errorf("%s (HTTP %d)", httpErr.Message(), httpErr.Status)
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(data), path)
	return nil
}

// resolvePath turns a family name such as "payables" into its route. Paths
// starting with a slash are used as given.
func resolvePath(arg string) string {
	if strings.HasPrefix(arg, "/") {
		return arg
	}
	if route, ok := gateway.RouteFamilies[arg]; ok {
		return route
	}
	return "/" + arg
}
