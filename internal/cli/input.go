package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetPassword prints a password prompt to w and reads the primary store
// password from the terminal without echo.
func GetPassword(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "PostgreSQL password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// GetFields reads "name=value" lines from sc until an empty line or EOF
// and returns them unparsed.
func GetFields(sc *bufio.Scanner, w io.Writer) ([]string, error) {
	if _, err := fmt.Fprintln(w, "Enter fields as name=value (empty line to finish)"); err != nil {
		return nil, err
	}

	lines := make([]string, 0)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

var numberRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// ParseFields turns name=value pairs into entity values. Values that read
// as JSON numbers become json.Number, true and false become booleans and
// everything else stays text, so "0612" or "2024-03-01" keep their form.
func ParseFields(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed field %q, want name=value", p)
		}
		value = strings.TrimSpace(value)
		switch {
		case value == "true":
			out[name] = true
		case value == "false":
			out[name] = false
		case numberRe.MatchString(value):
			out[name] = json.Number(value)
		default:
			out[name] = value
		}
	}
	return out, nil
}
