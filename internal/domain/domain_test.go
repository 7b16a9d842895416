package domain

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		in      string
		want    UserID
		wantErr error
	}{
		{in: "a1", want: "a1"},
		{in: "  b2 ", want: "b2"},
		{in: "", wantErr: ErrUserIDEmpty},
		{in: "   ", wantErr: ErrUserIDEmpty},
		{in: strings.Repeat("x", MaxUserIDLen+1), wantErr: ErrUserIDTooLong},
	}
	for _, tt := range tests {
		got, err := ParseUserID(tt.in)
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("ParseUserID(%q) err = %v, want %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseUserID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRoomID(t *testing.T) {
	if _, err := ParseRoomID(""); !errors.Is(err, ErrRoomIDEmpty) {
		t.Fatalf("err = %v, want ErrRoomIDEmpty", err)
	}
	if _, err := ParseRoomID(strings.Repeat("r", MaxRoomIDLen+1)); !errors.Is(err, ErrRoomIDTooLong) {
		t.Fatalf("err = %v, want ErrRoomIDTooLong", err)
	}
	got, err := ParseRoomID("r1")
	if err != nil || got != "r1" {
		t.Fatalf("ParseRoomID(r1) = %q, %v", got, err)
	}
}

func TestRoomStateText(t *testing.T) {
	b, _ := RoomPaired.MarshalText()
	if string(b) != "paired" {
		t.Fatalf("RoomPaired text = %q", b)
	}
	if RoomState(0).String() != "empty" {
		t.Fatalf("zero state = %q", RoomState(0).String())
	}
}

func TestUserInfoSetUsernameTruncates(t *testing.T) {
	var u UserInfo
	u.SetUsername(strings.Repeat("n", MaxUsernameLen+5))
	if len(u.Username) != MaxUsernameLen {
		t.Fatalf("len = %d, want %d", len(u.Username), MaxUsernameLen)
	}
}

func TestUserInfoSetUsernameKeepsRunesWhole(t *testing.T) {
	var u UserInfo
	// The two-byte rune starting at byte 35 straddles the limit.
	u.SetUsername("x" + strings.Repeat("я", 20))
	if !utf8.ValidString(u.Username) {
		t.Fatalf("invalid utf-8: %q", u.Username)
	}
	if len(u.Username) != MaxUsernameLen-1 {
		t.Fatalf("len = %d, want %d", len(u.Username), MaxUsernameLen-1)
	}
}
