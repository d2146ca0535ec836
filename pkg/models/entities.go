package models

import (
	"fmt"
	"time"
)

// PlayerStatus tracks a player through the registration lifecycle.
type PlayerStatus string

const (
	PlayerPending  PlayerStatus = "pending"
	PlayerActive   PlayerStatus = "active"
	PlayerRejected PlayerStatus = "rejected"
	PlayerRemoved  PlayerStatus = "removed"
)

// Player is a registered (or registering) squad player. IDs are short,
// human-quotable codes: upper-cased initials plus a per-team sequence
// number, e.g. "JS1" for the first John Smith.
type Player struct {
	ID         string       `bson:"_id" json:"id"`
	TeamID     string       `bson:"team_id" json:"team_id"`
	TelegramID int64        `bson:"telegram_id" json:"telegram_id"`
	Name       string       `bson:"name" json:"name"`
	Phone      string       `bson:"phone,omitempty" json:"phone,omitempty"`
	Position   string       `bson:"position,omitempty" json:"position,omitempty"`
	Status     PlayerStatus `bson:"status" json:"status"`
	CreatedAt  time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `bson:"updated_at" json:"updated_at"`
}

// MemberStatus tracks a team member (non-playing staff) record.
type MemberStatus string

const (
	MemberActive  MemberStatus = "active"
	MemberRemoved MemberStatus = "removed"
)

// TeamMember is non-playing staff: coaches, secretaries, administrators.
type TeamMember struct {
	ID         string       `bson:"_id" json:"id"`
	TeamID     string       `bson:"team_id" json:"team_id"`
	TelegramID int64        `bson:"telegram_id" json:"telegram_id"`
	Name       string       `bson:"name" json:"name"`
	Phone      string       `bson:"phone,omitempty" json:"phone,omitempty"`
	Role       string       `bson:"role,omitempty" json:"role,omitempty"`
	IsAdmin    bool         `bson:"is_admin" json:"is_admin"`
	Status     MemberStatus `bson:"status" json:"status"`
	CreatedAt  time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `bson:"updated_at" json:"updated_at"`
}

// MatchStatus tracks a fixture through its lifecycle.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchCompleted MatchStatus = "completed"
	MatchCancelled MatchStatus = "cancelled"
)

// Match is a fixture against an opponent.
type Match struct {
	ID          string      `bson:"_id" json:"id"`
	TeamID      string      `bson:"team_id" json:"team_id"`
	Opponent    string      `bson:"opponent" json:"opponent"`
	Date        time.Time   `bson:"date" json:"date"`
	Location    string      `bson:"location,omitempty" json:"location,omitempty"`
	Competition string      `bson:"competition,omitempty" json:"competition,omitempty"`
	Status      MatchStatus `bson:"status" json:"status"`
	Squad       []string    `bson:"squad,omitempty" json:"squad,omitempty"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at" json:"updated_at"`
}

// AttendanceStatus is a player's availability or recorded attendance for a
// match. The first three are forward-looking, the last two retrospective.
type AttendanceStatus string

const (
	AttendanceYes      AttendanceStatus = "yes"
	AttendanceNo       AttendanceStatus = "no"
	AttendanceMaybe    AttendanceStatus = "maybe"
	AttendanceAttended AttendanceStatus = "attended"
	AttendanceAbsent   AttendanceStatus = "absent"
)

// IsValid reports whether s is a known attendance status.
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendanceYes, AttendanceNo, AttendanceMaybe, AttendanceAttended, AttendanceAbsent:
		return true
	}
	return false
}

// Attendance links a player to a match with a status. The document ID is
// the composite {team_id}_{match_id}_{player_id} so a record can be
// fetched directly without a secondary index.
type Attendance struct {
	ID         string           `bson:"_id" json:"id"`
	TeamID     string           `bson:"team_id" json:"team_id"`
	MatchID    string           `bson:"match_id" json:"match_id"`
	PlayerID   string           `bson:"player_id" json:"player_id"`
	Status     AttendanceStatus `bson:"status" json:"status"`
	RecordedBy string           `bson:"recorded_by,omitempty" json:"recorded_by,omitempty"`
	RecordedAt time.Time        `bson:"recorded_at" json:"recorded_at"`
}

// AttendanceID builds the composite document ID for a (team, match, player)
// triple.
func AttendanceID(teamID, matchID, playerID string) string {
	return fmt.Sprintf("%s_%s_%s", teamID, matchID, playerID)
}

// Team is the tenant record: one football team with its two chats.
type Team struct {
	ID               string    `bson:"_id" json:"id"`
	Name             string    `bson:"name" json:"name"`
	MainChatID       string    `bson:"main_chat_id" json:"main_chat_id"`
	LeadershipChatID string    `bson:"leadership_chat_id" json:"leadership_chat_id"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
