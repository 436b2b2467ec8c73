package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, argv []string) ([]byte, []byte, int, error) {
	args := m.Called(argv)
	var stdout, stderr []byte
	if v := args.Get(0); v != nil {
		stdout = []byte(v.(string))
	}
	if v := args.Get(1); v != nil {
		stderr = []byte(v.(string))
	}
	return stdout, stderr, args.Int(2), args.Error(3)
}

func (m *mockRunner) Start(argv []string) error {
	return m.Called(argv).Error(0)
}

var errExit = errors.New("exit status 2")

func TestExecuteSuccessCapturesOutput(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", []string{"ip", "netns", "list"}).Return("red\nblue\n", "", 0, nil).Once()

	res, err := New(r, nil).Execute(context.Background(), IP("netns", "list"), Capture())
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.False(t, res.Tolerated)
	assert.Equal(t, "red\nblue\n", res.Stdout)
	r.AssertExpectations(t)
}

func TestExecuteWithoutCaptureDropsOutput(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", []string{"ip", "link", "show"}).Return("1: lo", "", 0, nil).Once()

	res, err := New(r, nil).Execute(context.Background(), IP("link", "show"))
	require.NoError(t, err)
	assert.Empty(t, res.Stdout)
}

func TestExecuteFailsWithCommandError(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", []string{"ip", "link", "add", "vpc-a", "type", "bridge"}).
		Return("", "RTNETLINK answers: Operation not permitted\n", 2, errExit).Once()

	_, err := New(r, nil).Execute(context.Background(), IP("link", "add", "vpc-a", "type", "bridge"))
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "ip link add vpc-a type bridge", cmdErr.Command)
	assert.Equal(t, "RTNETLINK answers: Operation not permitted", cmdErr.Stderr)
	assert.Equal(t, 2, cmdErr.ExitCode)
	assert.Equal(t, CodeFailed, cmdErr.Code)
	assert.ErrorIs(t, err, errExit)
}

func TestExecuteToleratesExists(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		code   Code
	}{
		{"file exists", "RTNETLINK answers: File exists", CodeExists},
		{"namespace exists", `Cannot create namespace file "/var/run/netns/a-web": File exists`, CodeExists},
		{"already exists", "Error: address already exists", CodeExists},
		{"no device", `Cannot find device "vn1234"`, CodeNoDevice},
		{"invalid gateway", "Error: Nexthop has invalid gateway.", CodeInvalidGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(mockRunner)
			r.On("Run", mock.Anything).Return("ignored", tt.stderr, 2, errExit).Once()

			res, err := New(r, nil).Execute(context.Background(), IP("link", "set", "x", "up"), TolerateExists(), Capture())
			require.NoError(t, err)
			assert.True(t, res.OK)
			assert.True(t, res.Tolerated)
			assert.Empty(t, res.Stdout)
			assert.Equal(t, tt.code, res.Code)
		})
	}
}

func TestExecuteTolerateExistsStillFailsOnOtherErrors(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", mock.Anything).Return("", "Operation not permitted", 2, errExit).Once()

	_, err := New(r, nil).Execute(context.Background(), IP("netns", "add", "a-web"), TolerateExists())
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestExecuteToleratesAny(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", mock.Anything).Return("", "Operation not permitted", 2, errExit).Once()

	res, err := New(r, nil).Execute(context.Background(), IP("netns", "del", "a-web"), TolerateAny())
	require.NoError(t, err)
	assert.True(t, res.Tolerated)
}

func TestExecuteNoFailReturnsClassifiedResult(t *testing.T) {
	r := new(mockRunner)
	cmd := IPTables("-t", "nat", "-C", "POSTROUTING", "-s", "10.0.0.0/16", "-j", "MASQUERADE")
	r.On("Run", cmd.Argv()).Return("", "iptables: Bad rule (does a matching rule exist in that chain?).", 1, errExit).Once()

	res, err := New(r, nil).Execute(context.Background(), cmd, NoFail())
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, CodeMissing, res.Code)
}

func TestExecuteRunsInsideNamespace(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", []string{"ip", "netns", "exec", "a-web", "ip", "link", "set", "lo", "up"}).Return("", "", 0, nil).Once()

	_, err := New(r, nil).Execute(context.Background(), IP("link", "set", "lo", "up").In("a-web"))
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestExecuteBackground(t *testing.T) {
	r := new(mockRunner)
	r.On("Start", []string{"sleep", "10"}).Return(nil).Once()

	res, err := New(r, nil).Execute(context.Background(), Cmd("sleep", "10"), Background())
	require.NoError(t, err)
	assert.True(t, res.OK)
	r.AssertExpectations(t)
	r.AssertNotCalled(t, "Run", mock.Anything)
}

func TestExecuteBackgroundFailure(t *testing.T) {
	r := new(mockRunner)
	r.On("Start", mock.Anything).Return(errors.New("exec: not found")).Once()

	_, err := New(r, nil).Execute(context.Background(), Cmd("nope"), Background())
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestDryRunRunnerSucceeds(t *testing.T) {
	res, err := New(DryRunRunner{}, nil).Execute(context.Background(), IP("link", "del", "vpc-a"))
	require.NoError(t, err)
	assert.True(t, res.OK)
}
