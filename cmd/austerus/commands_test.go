package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mastercactapus/austerus/correlate"
	"github.com/mastercactapus/austerus/gcode"
	"github.com/mastercactapus/austerus/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default; cobra keeps parsed values
// between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(in))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0644))
	return p
}

const vergeProgram = "G28\nG90\nG1 Z0.2\nG1 X10 Y10\nG1 X20 Y10 E1\nG1 X20 Y30 E2\nG1 Z5\n"

func TestVerge(t *testing.T) {
	f := writeFile(t, "part.gcode", vergeProgram)

	out, err := execute(t, "", "verge", f)
	require.NoError(t, err)
	assert.Contains(t, out, "7 lines, travel")
	assert.Contains(t, out, "X\t0.000000\t20.000000\n")
	assert.Contains(t, out, "Y\t0.000000\t30.000000\n")
	assert.Contains(t, out, "Z\t0.000000\t5.000000\n")
	assert.NotContains(t, out, "E\t")

	out, err = execute(t, "", "verge", "-d", f)
	require.NoError(t, err)
	assert.Contains(t, out, "deposition")
	assert.Contains(t, out, "X\t10.000000\t20.000000\n")
	assert.Contains(t, out, "Y\t10.000000\t30.000000\n")
	assert.Contains(t, out, "Z\t0.200000\t0.200000\n")
	assert.Contains(t, out, "E\t0.000000\t2.000000\n")
}

func TestVerge_ZWindowAndIgnore(t *testing.T) {
	f := writeFile(t, "part.gcode", vergeProgram)

	out, err := execute(t, "", "verge", "--zmin", "1", "--ignore", "15:25:25:35", f)
	require.NoError(t, err)
	assert.Contains(t, out, "zwindow")
	assert.Contains(t, out, "ignoring")
	assert.Contains(t, out, "Y\t0.000000\t10.000000\n")
}

func TestVerge_Errors(t *testing.T) {
	f := writeFile(t, "part.gcode", vergeProgram)

	_, err := execute(t, "", "verge", "--deposition", "--zmin", "1", f)
	assert.EqualError(t, err, "--deposition and --zmin cannot be used together")
	assert.Equal(t, 1, exitCode(err))

	_, err = execute(t, "", "verge", "--ignore", "1:2:3", f)
	assert.Error(t, err)

	_, err = execute(t, "", "verge", filepath.Join(t.TempDir(), "missing.gcode"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, exitCode(err))

	_, err = execute(t, "", "verge", writeFile(t, "empty.gcode", "; nothing\n"))
	assert.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestCore(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "sent.log")

	out, err := execute(t, "G90\n\nG1 X1\n#ag:exit\nG1 X2\n", "core", "-p", "NULL", "-a", "2", "--dump", dump)
	require.NoError(t, err)
	assert.Equal(t, "ok\nok\n", out)

	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Equal(t, "G90\nG1 X1\n", string(data))
}

func TestCore_Validate(t *testing.T) {
	_, err := execute(t, "G1 X1\n", "core", "-p", "NULL", "--validate")
	assert.ErrorIs(t, err, vm.ErrModeUndeclared)
	assert.Equal(t, 1, exitCode(err))

	_, err = execute(t, "G90\nG1 X1\n", "core", "-p", "NULL", "--validate")
	assert.NoError(t, err)
}

func TestCore_NoPort(t *testing.T) {
	t.Setenv("AG_SERIALPORT", "")
	_, err := execute(t, "", "core")
	assert.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

const sendProgram = "G28\nG90\nG1 X1 E1\nG1 X2 E2 ; two\nG1 X3 E4\n"

func TestSend(t *testing.T) {
	a := writeFile(t, "a.gcode", sendProgram)
	b := writeFile(t, "b.gcode", sendProgram)

	out, err := execute(t, "", "send", "-p", "NULL", "--in-process", "--stream", "-a", "2", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "sending a.gcode")
	assert.Contains(t, out, "sending b.gcode")
	assert.Contains(t, out, "5 lines")
	assert.Contains(t, out, "0% complete (unknown remaining)")
	assert.Contains(t, out, "100% complete")
	assert.Equal(t, 2, strings.Count(out, "completed print"))
	assert.NotContains(t, out, "expected")
}

func TestSend_NoWindow(t *testing.T) {
	a := writeFile(t, "a.gcode", sendProgram)

	out, err := execute(t, "", "send", "-p", "NULL", "--in-process", "-a", "0", a)
	require.NoError(t, err)
	assert.Contains(t, out, "expected 5 acknowledgements, got 0")
	assert.Contains(t, out, "completed print")
}

func TestSend_MissingFile(t *testing.T) {
	b := writeFile(t, "b.gcode", sendProgram)

	out, err := execute(t, "", "send", "-p", "NULL", "--in-process", filepath.Join(t.TempDir(), "missing.gcode"), b)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, exitCode(err))
	assert.NotContains(t, out, "sending b.gcode")
}

func TestSend_DispatcherFailure(t *testing.T) {
	bad := writeFile(t, "bad.gcode", "G28\nG90\nG1 X1 E1\nG1 X\nG1 X2 E2\n")
	good := writeFile(t, "good.gcode", sendProgram)

	out, err := execute(t, "", "send", "-p", "NULL", "--in-process", "--validate", bad, good)

	var ee *correlate.ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.Code)
	assert.ErrorIs(t, err, gcode.ErrMalformed)
	assert.Equal(t, 1, exitCode(err))

	assert.Contains(t, out, "bad.gcode: dispatcher exited with status 1")
	assert.Equal(t, 1, strings.Count(out, "completed print"))
}
