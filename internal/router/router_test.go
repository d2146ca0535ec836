package router

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/internal/agent/providers"
	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/internal/format"
	"github.com/kickai-football/kickai/internal/invite"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/orchestration"
	"github.com/kickai-football/kickai/internal/service"
	"github.com/kickai-football/kickai/internal/telegram"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/internal/tools/builtin"
	"github.com/kickai-football/kickai/pkg/models"
)

const (
	mainChatID       int64 = -100
	leadershipChatID int64 = -200

	adminTelegramID  int64 = 900
	playerTelegramID int64 = 111
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.LogConfig{Level: "error"})
}

// fakePlayerStore is an in-memory PlayerStore keyed by player ID.
type fakePlayerStore struct {
	players map[string]models.Player
}

func newFakePlayerStore(players ...models.Player) *fakePlayerStore {
	s := &fakePlayerStore{players: make(map[string]models.Player)}
	for _, p := range players {
		s.players[p.ID] = p
	}
	return s
}

func (s *fakePlayerStore) Insert(_ context.Context, p models.Player) error {
	if _, ok := s.players[p.ID]; ok {
		return apperr.Conflict("player "+p.ID+" already exists", nil)
	}
	s.players[p.ID] = p
	return nil
}

func (s *fakePlayerStore) ByID(_ context.Context, id string) (models.Player, error) {
	p, ok := s.players[id]
	if !ok {
		return models.Player{}, apperr.NotFound("no player "+id, nil)
	}
	return p, nil
}

func (s *fakePlayerStore) ByTelegramID(_ context.Context, telegramID int64) (models.Player, error) {
	for _, p := range s.players {
		if p.TelegramID == telegramID {
			return p, nil
		}
	}
	return models.Player{}, apperr.NotFound("not registered", nil)
}

func (s *fakePlayerStore) ByPhone(_ context.Context, phone string) (models.Player, error) {
	for _, p := range s.players {
		if p.Phone == phone {
			return p, nil
		}
	}
	return models.Player{}, apperr.NotFound("no player with that phone", nil)
}

func (s *fakePlayerStore) List(_ context.Context, statuses ...models.PlayerStatus) ([]models.Player, error) {
	var out []models.Player
	for _, p := range s.players {
		if len(statuses) == 0 {
			out = append(out, p)
			continue
		}
		for _, st := range statuses {
			if p.Status == st {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (s *fakePlayerStore) Update(_ context.Context, p models.Player) error {
	if _, ok := s.players[p.ID]; !ok {
		return apperr.NotFound("no player "+p.ID, nil)
	}
	s.players[p.ID] = p
	return nil
}

func (s *fakePlayerStore) SetStatus(_ context.Context, id string, status models.PlayerStatus) error {
	p, ok := s.players[id]
	if !ok {
		return apperr.NotFound("no player "+id, nil)
	}
	p.Status = status
	s.players[id] = p
	return nil
}

func (s *fakePlayerStore) CountByIDPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for id := range s.players {
		if strings.HasPrefix(id, prefix) {
			n++
		}
	}
	return n, nil
}

// fakeMemberStore is an in-memory MemberStore keyed by member ID.
type fakeMemberStore struct {
	members map[string]models.TeamMember
}

func newFakeMemberStore(members ...models.TeamMember) *fakeMemberStore {
	s := &fakeMemberStore{members: make(map[string]models.TeamMember)}
	for _, m := range members {
		s.members[m.ID] = m
	}
	return s
}

func (s *fakeMemberStore) Insert(_ context.Context, m models.TeamMember) error {
	if _, ok := s.members[m.ID]; ok {
		return apperr.Conflict("member "+m.ID+" already exists", nil)
	}
	s.members[m.ID] = m
	return nil
}

func (s *fakeMemberStore) ByID(_ context.Context, id string) (models.TeamMember, error) {
	m, ok := s.members[id]
	if !ok {
		return models.TeamMember{}, apperr.NotFound("no member "+id, nil)
	}
	return m, nil
}

func (s *fakeMemberStore) ByTelegramID(_ context.Context, telegramID int64) (models.TeamMember, error) {
	for _, m := range s.members {
		if m.TelegramID == telegramID {
			return m, nil
		}
	}
	return models.TeamMember{}, apperr.NotFound("not a member", nil)
}

func (s *fakeMemberStore) List(_ context.Context, statuses ...models.MemberStatus) ([]models.TeamMember, error) {
	var out []models.TeamMember
	for _, m := range s.members {
		if len(statuses) == 0 {
			out = append(out, m)
			continue
		}
		for _, st := range statuses {
			if m.Status == st {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeMemberStore) Update(_ context.Context, m models.TeamMember) error {
	if _, ok := s.members[m.ID]; !ok {
		return apperr.NotFound("no member "+m.ID, nil)
	}
	s.members[m.ID] = m
	return nil
}

func (s *fakeMemberStore) CountByIDPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for id := range s.members {
		if strings.HasPrefix(id, prefix) {
			n++
		}
	}
	return n, nil
}

// fakeMatchStore is an in-memory MatchStore keyed by match ID.
type fakeMatchStore struct {
	matches map[string]models.Match
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[string]models.Match)}
}

func (s *fakeMatchStore) Insert(_ context.Context, m models.Match) error {
	if _, ok := s.matches[m.ID]; ok {
		return apperr.Conflict("match "+m.ID+" already exists", nil)
	}
	s.matches[m.ID] = m
	return nil
}

func (s *fakeMatchStore) ByID(_ context.Context, id string) (models.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return models.Match{}, apperr.NotFound("no match "+id, nil)
	}
	return m, nil
}

func (s *fakeMatchStore) List(_ context.Context, statuses ...models.MatchStatus) ([]models.Match, error) {
	var out []models.Match
	for _, m := range s.matches {
		if len(statuses) == 0 {
			out = append(out, m)
			continue
		}
		for _, st := range statuses {
			if m.Status == st {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeMatchStore) SetSquad(_ context.Context, id string, squad []string) error {
	m, ok := s.matches[id]
	if !ok {
		return apperr.NotFound("no match "+id, nil)
	}
	m.Squad = squad
	s.matches[id] = m
	return nil
}

func (s *fakeMatchStore) SetStatus(_ context.Context, id string, status models.MatchStatus) error {
	m, ok := s.matches[id]
	if !ok {
		return apperr.NotFound("no match "+id, nil)
	}
	m.Status = status
	s.matches[id] = m
	return nil
}

func (s *fakeMatchStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.matches)), nil
}

// fakeTeamStore holds one tenant record.
type fakeTeamStore struct {
	team models.Team
}

func (s *fakeTeamStore) ByID(_ context.Context, id string) (models.Team, error) {
	if s.team.ID != id {
		return models.Team{}, apperr.NotFound("no team "+id, nil)
	}
	return s.team, nil
}

func (s *fakeTeamStore) ByChatID(_ context.Context, chatID string) (models.Team, error) {
	if chatID == s.team.MainChatID || chatID == s.team.LeadershipChatID {
		return s.team, nil
	}
	return models.Team{}, apperr.NotFound("no team owns chat "+chatID, nil)
}

func (s *fakeTeamStore) List(_ context.Context) ([]models.Team, error) {
	return []models.Team{s.team}, nil
}

func (s *fakeTeamStore) Upsert(_ context.Context, t models.Team) error {
	s.team = t
	return nil
}

type fixture struct {
	router  *Router
	players *fakePlayerStore
	members *fakeMemberStore
	matches *fakeMatchStore
}

// newFixture wires a full router over in-memory stores, the builtin tool
// set, and a scripted provider.
func newFixture(t *testing.T, players []models.Player, members []models.TeamMember, scripts ...providers.MockScript) *fixture {
	t.Helper()
	logger := testLogger()

	playerStore := newFakePlayerStore(players...)
	memberStore := newFakeMemberStore(members...)
	matchStore := newFakeMatchStore()
	teamStore := &fakeTeamStore{team: models.Team{
		ID:               "t1",
		Name:             "KickAI FC",
		MainChatID:       "-100",
		LeadershipChatID: "-200",
	}}

	teamSvc := service.NewTeamService(teamStore, logger)
	bundle := &service.Services{
		Players:     service.NewPlayerService("t1", playerStore, logger),
		Members:     service.NewTeamMemberService("t1", memberStore, logger),
		Matches:     service.NewMatchService("t1", matchStore, playerStore, logger),
		Permissions: service.NewPermissionService(playerStore, memberStore, logger),
	}
	resolver := func(string) *service.Services { return bundle }

	cmdReg, err := commands.NewInitialized(logger)
	if err != nil {
		t.Fatalf("command registry: %v", err)
	}

	toolReg := tools.NewRegistry(logger, nil)
	err = builtin.Register(toolReg, builtin.Deps{
		Services:    resolver,
		Teams:       teamSvc,
		Invite:      invite.NewService("test-secret-key", time.Hour),
		Commands:    cmdReg,
		Version:     "test",
		BotUsername: "kickai_test_bot",
	})
	if err != nil {
		t.Fatalf("builtin.Register: %v", err)
	}
	toolReg.Freeze()

	provider := providers.NewMockProvider(scripts...)
	factory := agent.NewFactory(provider, toolReg, format.New(0), logger, nil, nil)
	agents, err := factory.Build([]config.AgentConfig{
		{Role: "message_processor"},
		{Role: "help_assistant"},
		{Role: "player_coordinator"},
		{Role: "team_administrator"},
		{Role: "squad_selector"},
	}, "test-model")
	if err != nil {
		t.Fatalf("agent factory: %v", err)
	}

	pipeline := orchestration.New(config.PipelineConfig{}, nil, cmdReg, toolReg, agents, logger, nil, nil)
	return &fixture{
		router:  New(teamSvc, resolver, cmdReg, pipeline, 5*time.Second, logger, nil, nil),
		players: playerStore,
		members: memberStore,
		matches: matchStore,
	}
}

func activeAdmin() models.TeamMember {
	return models.TeamMember{
		ID: "M1", TeamID: "t1", TelegramID: adminTelegramID,
		Name: "Ada Lovelace", IsAdmin: true, Status: models.MemberActive,
	}
}

func activePlayer(id, name string, telegramID int64) models.Player {
	return models.Player{
		ID: id, TeamID: "t1", TelegramID: telegramID,
		Name: name, Status: models.PlayerActive,
	}
}

func TestListInLeadershipChat(t *testing.T) {
	f := newFixture(t,
		[]models.Player{
			activePlayer("JS1", "John Smith", playerTelegramID),
			activePlayer("JD1", "Jane Doe", 112),
		},
		[]models.TeamMember{activeAdmin()},
	)

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: leadershipChatID, TelegramID: adminTelegramID, Username: "ada", Text: "/list",
	})
	if !strings.Contains(resp.Text, "player(s):") {
		t.Errorf("reply = %q, want a roster header", resp.Text)
	}
	for _, name := range []string{"John Smith", "Jane Doe"} {
		if !strings.Contains(resp.Text, name) {
			t.Errorf("reply missing %s:\n%s", name, resp.Text)
		}
	}
}

func TestRegisterCommand(t *testing.T) {
	f := newFixture(t, nil, nil)

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: mainChatID, TelegramID: 555, Username: "john",
		Text: "/register John Smith +447123456789 midfielder",
	})
	if !strings.Contains(resp.Text, "Registration Successful") {
		t.Fatalf("reply = %q, want the registration confirmation", resp.Text)
	}

	p, err := f.players.ByTelegramID(context.Background(), 555)
	if err != nil {
		t.Fatalf("player was not stored: %v", err)
	}
	if !regexp.MustCompile(`^[A-Z]{2,}\d+$`).MatchString(p.ID) {
		t.Errorf("player ID = %q, want initials + counter", p.ID)
	}
	if !strings.Contains(resp.Text, p.ID) {
		t.Errorf("reply %q should carry the new ID %s", resp.Text, p.ID)
	}
	if p.Phone != "+447123456789" {
		t.Errorf("phone = %q, want E.164", p.Phone)
	}
	if p.Position != "midfielder" {
		t.Errorf("position = %q", p.Position)
	}
	if p.Status != models.PlayerPending {
		t.Errorf("status = %s, want pending", p.Status)
	}
}

func TestNaturalLanguageHelp(t *testing.T) {
	f := newFixture(t,
		[]models.Player{activePlayer("JS1", "John Smith", playerTelegramID)},
		nil,
		providers.MockScript{Match: "what can i do", Reply: "You can use /help, /list and /matches here."},
	)

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: mainChatID, TelegramID: playerTelegramID, Username: "john", Text: "what can I do?",
	})
	if !strings.Contains(resp.Text, "/help") {
		t.Errorf("reply = %q, want the scripted command list", resp.Text)
	}
}

func TestApproveDeniedForNonAdmin(t *testing.T) {
	pending := models.Player{
		ID: "AB1", TeamID: "t1", TelegramID: 777,
		Name: "Alice Brown", Status: models.PlayerPending,
	}
	f := newFixture(t,
		[]models.Player{activePlayer("JS1", "John Smith", playerTelegramID), pending},
		nil,
	)

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: mainChatID, TelegramID: playerTelegramID, Username: "john", Text: "/approve AB1",
	})
	if !strings.Contains(resp.Text, "don't have permission") {
		t.Errorf("reply = %q, want the permission script", resp.Text)
	}

	stored, err := f.players.ByID(context.Background(), "AB1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.Status != models.PlayerPending {
		t.Errorf("status = %s; denied command must not write", stored.Status)
	}
}

func TestApproveRedirectedForAdminInMainChat(t *testing.T) {
	f := newFixture(t, nil, []models.TeamMember{activeAdmin()})

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: mainChatID, TelegramID: adminTelegramID, Username: "ada", Text: "/approve AB1",
	})
	if !strings.Contains(resp.Text, "leadership chat") {
		t.Errorf("reply = %q, want the chat-scope redirect", resp.Text)
	}
}

func TestApproveConfirmationCarriesMessage(t *testing.T) {
	pending := models.Player{
		ID: "AB1", TeamID: "t1", TelegramID: 777,
		Name: "Alice Brown", Status: models.PlayerPending,
	}
	f := newFixture(t, []models.Player{pending}, []models.TeamMember{activeAdmin()})

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: leadershipChatID, TelegramID: adminTelegramID, Username: "ada", Text: "/approve AB1",
	})
	if !strings.Contains(resp.Text, "approved and active") {
		t.Errorf("reply = %q, want the approval confirmation", resp.Text)
	}
	if !strings.Contains(resp.Text, "Alice Brown") {
		t.Errorf("reply %q should name the player", resp.Text)
	}

	stored, err := f.players.ByID(context.Background(), "AB1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.Status != models.PlayerActive {
		t.Errorf("status = %s, want active", stored.Status)
	}
}

func TestAddMemberConfirmationCarriesMessage(t *testing.T) {
	f := newFixture(t, nil, []models.TeamMember{activeAdmin()})

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: leadershipChatID, TelegramID: adminTelegramID, Username: "ada",
		Text: "/addmember Carol White +447700900456 coach",
	})
	if !strings.Contains(resp.Text, "added to the team staff") {
		t.Fatalf("reply = %q, want the staff confirmation", resp.Text)
	}
	if !strings.Contains(resp.Text, "Carol White") {
		t.Errorf("reply %q should name the member", resp.Text)
	}

	var stored models.TeamMember
	for _, m := range f.members.members {
		if m.Name == "Carol White" {
			stored = m
		}
	}
	if stored.ID == "" {
		t.Fatal("member was not stored")
	}
	if stored.Role != "coach" {
		t.Errorf("role = %q, want coach", stored.Role)
	}
}

func TestCreateMatchConfirmationCarriesMessage(t *testing.T) {
	f := newFixture(t, nil, []models.TeamMember{activeAdmin()})

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: leadershipChatID, TelegramID: adminTelegramID, Username: "ada",
		Text: "/creatematch Red Lions 2030-09-12 14:30 Anfield friendly",
	})
	if !strings.Contains(resp.Text, "on the calendar") {
		t.Fatalf("reply = %q, want the fixture confirmation", resp.Text)
	}
	if !strings.Contains(resp.Text, "Red Lions") {
		t.Errorf("reply %q should name the opponent", resp.Text)
	}

	stored, err := f.matches.ByID(context.Background(), "M1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.Opponent != "Red Lions" || stored.Location != "Anfield" {
		t.Errorf("stored match = %+v", stored)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, nil, nil)

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: mainChatID, TelegramID: 555, Username: "sam", Text: "/frobnicate now",
	})
	if !strings.Contains(resp.Text, "don't recognize /frobnicate") {
		t.Errorf("reply = %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "/help") {
		t.Errorf("reply %q should point at /help", resp.Text)
	}
}

func TestContactShareLinksPendingPlayer(t *testing.T) {
	pending := models.Player{
		ID: "AB1", TeamID: "t1", Name: "Alice Brown",
		Phone: "+447700900123", Status: models.PlayerPending,
	}
	f := newFixture(t, []models.Player{pending}, nil)

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: 777, TelegramID: 777, Username: "alice",
		Contact: &telegram.Contact{PhoneNumber: "+447700900123", UserID: 777},
	})
	if !strings.Contains(resp.Text, "linked to player AB1") {
		t.Fatalf("reply = %q, want linkage confirmation", resp.Text)
	}

	stored, err := f.players.ByID(context.Background(), "AB1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.TelegramID != 777 {
		t.Errorf("TelegramID = %d, want 777", stored.TelegramID)
	}
	if stored.Phone != "+447700900123" {
		t.Errorf("phone = %q, want E.164", stored.Phone)
	}
}

func TestContactShareUnknownNumberAsksToRegister(t *testing.T) {
	f := newFixture(t, nil, nil)

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: 888, TelegramID: 888, Username: "newbie",
		Contact: &telegram.Contact{PhoneNumber: "+15551234567", UserID: 888},
	})
	if !strings.Contains(resp.Text, "/register") {
		t.Errorf("reply = %q, want a pointer to /register", resp.Text)
	}
	if !resp.RequestContact {
		t.Error("RequestContact should be set for the retry keyboard")
	}
}

func TestRequestTimeoutScriptedApology(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.router.timeout = time.Nanosecond

	resp := f.router.Handle(context.Background(), telegram.Update{
		ChatID: mainChatID, TelegramID: 555, Username: "sam", Text: "/ping",
	})
	if resp.Text != timeoutApology {
		t.Errorf("reply = %q, want the timeout script", resp.Text)
	}
}
