package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func testRootCmd() *cobra.Command {
	root := &cobra.Command{Use: "sheetkit"}
	root.AddCommand(&cobra.Command{Use: "extract", Short: "Extract cells"})
	root.AddCommand(&cobra.Command{Use: "convert", Short: "Convert workbooks"})
	root.AddCommand(NewCommand(root))
	return root
}

func runCompletion(t *testing.T, shell string) (string, error) {
	t.Helper()
	root := testRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"completion", shell})
	err := root.Execute()
	return buf.String(), err
}

func TestBashCompletion(t *testing.T) {
	output, err := runCompletion(t, "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output, "_sheetkit") {
		t.Error("bash completion should contain _sheetkit function")
	}
	if !strings.HasPrefix(output, "# sheetkit bash completion") {
		t.Error("bash completion should start with the install header")
	}
}

func TestZshCompletion(t *testing.T) {
	output, err := runCompletion(t, "zsh")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output, "compdef") {
		t.Error("zsh completion should contain compdef")
	}
}

func TestFishCompletion(t *testing.T) {
	output, err := runCompletion(t, "fish")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output, "complete -c sheetkit") {
		t.Error("fish completion should contain 'complete -c sheetkit'")
	}
}

func TestPowerShellCompletion(t *testing.T) {
	output, err := runCompletion(t, "powershell")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output, "sheetkit") {
		t.Error("PowerShell completion should contain sheetkit")
	}
}

func TestUnsupportedShell(t *testing.T) {
	root := testRootCmd()
	var buf bytes.Buffer
	if err := generate(root, "tcsh", &buf); err == nil {
		t.Error("expected error for unsupported shell")
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for an unsupported shell")
	}
}
