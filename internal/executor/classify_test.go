package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		exitCode int
		stderr   string
		want     Code
	}{
		{"success", IP("link"), 0, "", CodeOK},
		{"not installed", Cmd("iptables"), 127, "", CodeNotInstalled},
		{"iptables check missing", IPTables("-C", "INPUT", "-j", "DROP"), 1, "Bad rule", CodeMissing},
		{"iptables append exit 1 is not missing", IPTables("-A", "INPUT", "-j", "DROP"), 1, "Bad rule", CodeFailed},
		{"exists", IP("link", "add"), 2, "RTNETLINK answers: File exists", CodeExists},
		{"no device", IP("link", "set"), 1, `Cannot find device "x"`, CodeNoDevice},
		{"unreachable", IP("route", "add"), 2, "Error: Network is unreachable", CodeInvalidGateway},
		{"other", IP("route", "add"), 2, "Error: permission denied", CodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.cmd, tt.exitCode, tt.stderr))
		})
	}
}

func TestCodeBenign(t *testing.T) {
	assert.True(t, CodeExists.Benign())
	assert.True(t, CodeNoDevice.Benign())
	assert.True(t, CodeInvalidGateway.Benign())
	assert.False(t, CodeMissing.Benign())
	assert.False(t, CodeFailed.Benign())
}

func TestCommandString(t *testing.T) {
	cmd := Cmd("serve", "--message", "Hello from web").In("a-web")
	assert.Equal(t, `ip netns exec a-web serve --message "Hello from web"`, cmd.String())
	assert.Equal(t, []string{"ip", "netns", "exec", "a-web", "serve", "--message", "Hello from web"}, cmd.Argv())
}
