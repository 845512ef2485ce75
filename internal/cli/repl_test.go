package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	calls []string
	fail  error
}

func (f *fakeExec) call(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.fail
}

func (f *fakeExec) Load(ctx context.Context, path string) error { return f.call("load") }
func (f *fakeExec) List(ctx context.Context, kind models.Kind) error {
	return f.call("list %s", kind)
}
func (f *fakeExec) Add(ctx context.Context, kind models.Kind, pairs []string) error {
	return f.call("add %s %v", kind, pairs)
}
func (f *fakeExec) Update(ctx context.Context, kind models.Kind, key string, pairs []string) error {
	return f.call("set %s %s %v", kind, key, pairs)
}
func (f *fakeExec) Delete(ctx context.Context, kind models.Kind, key string) error {
	return f.call("delete %s %s", kind, key)
}
func (f *fakeExec) TrashList(ctx context.Context) error         { return f.call("trash") }
func (f *fakeExec) Restore(ctx context.Context, id int64) error { return f.call("restore %d", id) }
func (f *fakeExec) Purge(ctx context.Context) error             { return f.call("purge") }
func (f *fakeExec) AuditTail(ctx context.Context, n int) error  { return f.call("audit %d", n) }
func (f *fakeExec) AuditExport(ctx context.Context) error       { return f.call("export") }
func (f *fakeExec) Stats(ctx context.Context) error             { return f.call("stats") }
func (f *fakeExec) Health(ctx context.Context) error            { return f.call("health") }

func runScript(t *testing.T, exec *fakeExec, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	sc := bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n")))
	fields := func() ([]string, error) { return GetFields(sc, &out) }
	runREPL(context.Background(), exec, func() string { return "offline" }, sc, fields, &out)
	return out.String()
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	exec := &fakeExec{}
	out := runScript(t, exec,
		"help",
		"load",
		"list vehicles",
		"add purchases item=Gloves quantity=4",
		"set vehicles AB-123 status=OK",
		"delete anomalies Panne moteur",
		"trash",
		"restore 7",
		"purge",
		"audit",
		"audit 5",
		"export",
		"stats",
		"health",
		"exit",
		"load",
	)

	require.Equal(t, []string{
		"load",
		"list vehicles",
		"add purchases [item=Gloves quantity=4]",
		"set vehicles AB-123 [status=OK]",
		"delete anomalies Panne moteur",
		"trash",
		"restore 7",
		"purge",
		"audit 20",
		"audit 5",
		"export",
		"stats",
		"health",
	}, exec.calls)
	assert.Contains(t, out, "rk offline> ")
	assert.Contains(t, out, "Available commands")
	assert.Contains(t, out, "Bye!")
}

func TestRunREPL_AddPromptsForFields(t *testing.T) {
	exec := &fakeExec{}
	runScript(t, exec,
		"add credentials",
		"employee=Jean Dupont",
		"credential_type=CACES",
		"",
		"quit",
	)
	require.Equal(t, []string{"add credentials [employee=Jean Dupont credential_type=CACES]"}, exec.calls)
}

func TestRunREPL_UsageAndBadInput(t *testing.T) {
	exec := &fakeExec{}
	out := runScript(t, exec,
		"list",
		"list trucks",
		"delete vehicles",
		"set vehicles AB-123",
		"restore",
		"restore seven",
		"audit many",
		"frobnicate",
	)

	assert.Empty(t, exec.calls)
	assert.Contains(t, out, "missing kind")
	assert.Contains(t, out, "unknown")
	assert.Contains(t, out, "Usage: delete <kind> <key>")
	assert.Contains(t, out, "Usage: set <kind> <key>")
	assert.Contains(t, out, "Usage: restore <id>")
	assert.Contains(t, out, "Unknown command: frobnicate")
}

func TestRunREPL_ErrorsDoNotStopTheLoop(t *testing.T) {
	exec := &fakeExec{fail: errors.New("data unavailable")}
	out := runScript(t, exec, "load", "stats")

	assert.Equal(t, []string{"load", "stats"}, exec.calls)
	assert.Equal(t, 2, strings.Count(out, "error: data unavailable"))
}
