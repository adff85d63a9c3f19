package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/filestream/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// lookupEnv is a test seam for os.LookupEnv.
var lookupEnv = os.LookupEnv

var errEmptySecret = errors.New("empty secret")

// GetPassword prints prompt to w and reads a secret from the terminal
// without echo.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// secret returns the value of env when set, else prompts for it.
func secret(w io.Writer, env, prompt string) (string, error) {
	if v, ok := lookupEnv(env); ok && v != "" {
		return v, nil
	}
	pw, err := GetPassword(w, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)

	s := strings.TrimSpace(string(pw))
	if s == "" {
		return "", errEmptySecret
	}
	return s, nil
}
