package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/datenai/datalab/internal/dataset"
)

func TestClassifyFault_Timeout(t *testing.T) {
	got := classifyFault("", errors.New("signal: killed"), context.DeadlineExceeded, 30*time.Second)
	if got != "execution timed out after 30s" {
		t.Errorf("fault = %q", got)
	}
}

func TestClassifyFault_NameErrorHint(t *testing.T) {
	stderr := `Traceback (most recent call last):
  File "script.py", line 12, in <module>
    print(plot_base64)
NameError: name 'plot_base64' is not defined
`
	got := classifyFault(stderr, errors.New("exit status 1"), nil, time.Minute)
	if !strings.HasPrefix(got, "Variable not defined: NameError: name 'plot_base64' is not defined.") {
		t.Errorf("fault = %q, want the undefined-variable hint", got)
	}
	if !strings.Contains(got, "properly defined before use") {
		t.Errorf("fault = %q, missing remediation hint", got)
	}
}

func TestClassifyFault_LastTracebackLine(t *testing.T) {
	stderr := `Traceback (most recent call last):
  File "script.py", line 8, in <module>
    df.groupby('missing')
KeyError: 'missing'

`
	got := classifyFault(stderr, errors.New("exit status 1"), nil, time.Minute)
	if got != "KeyError: 'missing'" {
		t.Errorf("fault = %q, want the traceback summary line", got)
	}
}

func TestClassifyFault_EmptyStderr(t *testing.T) {
	got := classifyFault("", errors.New("exit status 137"), nil, time.Minute)
	if got != "exit status 137" {
		t.Errorf("fault = %q, want the process error", got)
	}
}

func TestLastNonEmptyLine(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a\nb\nc\n", "c"},
		{"a\nb\n\n  \n", "b"},
		{"single", "single"},
		{"", ""},
		{"\n\n", ""},
	}
	for _, tc := range cases {
		if got := lastNonEmptyLine(tc.in); got != tc.want {
			t.Errorf("lastNonEmptyLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRun_MissingInterpreter(t *testing.T) {
	r := New("/nonexistent/interpreter", time.Second)
	frame := &dataset.Frame{Columns: []string{"a"}, Rows: [][]string{{"1"}}}

	res := r.Run(context.Background(), "print(1)", frame)
	if !res.Faulted() {
		t.Fatal("missing interpreter did not fault")
	}
	if !strings.Contains(res.Fault, "starting interpreter") {
		t.Errorf("fault = %q", res.Fault)
	}
}
