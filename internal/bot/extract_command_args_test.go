package bot

import (
	"testing"
)

func TestExtractCommandArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		command string
		want    string
	}{
		{
			name:    "simple command with args",
			text:    "/history 2",
			command: "/history",
			want:    "2",
		},
		{
			name:    "command with no args",
			text:    "/history",
			command: "/history",
			want:    "",
		},
		{
			name:    "command with bot mention and args",
			text:    "/archive@mybot 3f2a",
			command: "/archive",
			want:    "3f2a",
		},
		{
			name:    "command with bot mention and no args",
			text:    "/zakat@mybot",
			command: "/zakat",
			want:    "",
		},
		{
			name:    "command with multi-word args",
			text:    "/deletecalc abc def",
			command: "/deletecalc",
			want:    "abc def",
		},
		{
			name:    "command with extra spaces",
			text:    "/complete   abc  ",
			command: "/complete",
			want:    "abc",
		},
		{
			name:    "setcurrency command",
			text:    "/setcurrency USD",
			command: "/setcurrency",
			want:    "USD",
		},
		{
			name:    "setcurrency with bot mention",
			text:    "/setcurrency@zakaat_bot eur",
			command: "/setcurrency",
			want:    "eur",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := extractCommandArgs(tt.text, tt.command)
			if got != tt.want {
				t.Errorf("extractCommandArgs(%q, %q) = %q, want %q", tt.text, tt.command, got, tt.want)
			}
		})
	}
}
