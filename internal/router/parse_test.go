package router

import (
	"reflect"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name   string
		toolID string
		tail   string
		want   map[string]any
	}{
		{
			name:   "register with position",
			toolID: "register_player",
			tail:   "John Smith +447123456789 midfielder",
			want: map[string]any{
				"name": "John Smith", "phone": "+447123456789", "position": "midfielder",
			},
		},
		{
			name:   "register name only",
			toolID: "register_player",
			tail:   "John Smith",
			want:   map[string]any{"name": "John Smith"},
		},
		{
			name:   "register empty tail",
			toolID: "register_player",
			tail:   "",
			want:   nil,
		},
		{
			name:   "add player",
			toolID: "add_player",
			tail:   "Jane Doe 07700900123",
			want:   map[string]any{"name": "Jane Doe", "phone": "07700900123"},
		},
		{
			name:   "add member with role",
			toolID: "add_team_member",
			tail:   "Sam Jones +447700900456 assistant coach",
			want: map[string]any{
				"name": "Sam Jones", "phone": "+447700900456", "role": "assistant coach",
			},
		},
		{
			name:   "update phone",
			toolID: "update_player",
			tail:   "phone +447700900789",
			want:   map[string]any{"phone": "+447700900789"},
		},
		{
			name:   "update unknown field",
			toolID: "update_player",
			tail:   "nickname Smudge",
			want:   nil,
		},
		{
			name:   "approve",
			toolID: "approve_player",
			tail:   "JS1",
			want:   map[string]any{"player_id": "JS1"},
		},
		{
			name:   "status by phone",
			toolID: "player_status",
			tail:   "+447123456789",
			want:   map[string]any{"phone": "+447123456789"},
		},
		{
			name:   "status by id",
			toolID: "player_status",
			tail:   "JS1",
			want:   map[string]any{"player_id": "JS1"},
		},
		{
			name:   "match with time location competition",
			toolID: "create_match",
			tail:   "Red Lions FC 2026-09-12 14:30 Anfield friendly",
			want: map[string]any{
				"opponent": "Red Lions FC", "date": "2026-09-12 14:30",
				"location": "Anfield", "competition": "friendly",
			},
		},
		{
			name:   "match date only",
			toolID: "create_match",
			tail:   "Red Lions 2026-09-12",
			want:   map[string]any{"opponent": "Red Lions", "date": "2026-09-12"},
		},
		{
			name:   "match without date",
			toolID: "create_match",
			tail:   "Red Lions",
			want:   map[string]any{"opponent": "Red Lions"},
		},
		{
			name:   "squad selection",
			toolID: "select_squad",
			tail:   "M1 JS1 JD1 AB1",
			want:   map[string]any{"match_id": "M1", "player_ids": []string{"JS1", "JD1", "AB1"}},
		},
		{
			name:   "attendance",
			toolID: "mark_attendance",
			tail:   "M1 JS1 Present",
			want:   map[string]any{"match_id": "M1", "player_id": "JS1", "status": "present"},
		},
		{
			name:   "announcement keeps whole tail",
			toolID: "send_announcement",
			tail:   "Training moved to 7pm on Thursday",
			want:   map[string]any{"message": "Training moved to 7pm on Thursday"},
		},
		{
			name:   "invite link",
			toolID: "generate_invite_link",
			tail:   "Main",
			want:   map[string]any{"chat_type": "main"},
		},
		{
			name:   "tool without arguments",
			toolID: "ping",
			tail:   "whatever",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseArgs(tt.toolID, tt.tail)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseArgs(%s, %q) = %#v, want %#v", tt.toolID, tt.tail, got, tt.want)
			}
		})
	}
}

func TestLooksLikePhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+447123456789", true},
		{"07700900123", true},
		{"1234567", true},
		{"123456", false},
		{"JS1", false},
		{"midfielder", false},
		{"+44-7123", false},
	}
	for _, tt := range tests {
		if got := looksLikePhone(tt.in); got != tt.want {
			t.Errorf("looksLikePhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
