package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	server := []string{"-a", "-d", "-redis", "-k"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{name: "separate values", args: []string{"-a", ":50051", "-x", "1", "-redis", "redis://r:6379/0"}, allowed: server,
			want: []string{"-a", ":50051", "-redis", "redis://r:6379/0"}},
		{name: "equals form", args: []string{"-d=postgres://db/auth", "-m", ":9090"}, allowed: server,
			want: []string{"-d=postgres://db/auth"}},
		{name: "equals value that looks like a flag", args: []string{"-k=-weird.pem"}, allowed: server,
			want: []string{"-k=-weird.pem"}},
		{name: "trailing flag without value", args: []string{"-k"}, allowed: server, want: []string{"-k"}},
		{name: "next flag is not a value", args: []string{"-k", "-a", ":1"}, allowed: server, want: []string{"-k", "-a", ":1"}},
		{name: "repeated flag keeps order", args: []string{"-a", ":1", "-a", ":2"}, allowed: server, want: []string{"-a", ":1", "-a", ":2"}},
		{name: "sub-command arguments dropped", args: []string{"login", "-u", "alice1", "-a", "h:1"}, allowed: []string{"-a"},
			want: []string{"-a", "h:1"}},
		{name: "nothing allowed matches", args: []string{"-x", "1", "positional"}, allowed: server, want: []string{}},
		{name: "empty", args: nil, allowed: server, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFile(t *testing.T) {
	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", ConfigFile([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with value", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigFile([]string{"-config", "/path/long.json"}))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		assert.Empty(t, ConfigFile([]string{"-x", "1", "-y", "2"}))
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", ConfigFile([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCmd  string
		wantRest []string
	}{
		{name: "command first", args: []string{"login", "-u", "alice"}, wantCmd: "login", wantRest: []string{"-u", "alice"}},
		{name: "global flags before command", args: []string{"-a", "127.0.0.1:50051", "register", "-e", "a@x.com"}, wantCmd: "register", wantRest: []string{"-e", "a@x.com"}},
		{name: "equals form flag", args: []string{"-a=host:1", "logout"}, wantCmd: "logout", wantRest: []string{}},
		{name: "no command", args: []string{"-a", "host:1"}, wantCmd: "", wantRest: nil},
		{name: "empty", args: nil, wantCmd: "", wantRest: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, rest := SplitCommand(tt.args)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}
