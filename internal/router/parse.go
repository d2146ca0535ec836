package router

import (
	"regexp"
	"strings"
)

var (
	dateToken = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	timeToken = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// parseArgs turns a command tail into the argument map the backing tool
// expects. Missing required arguments are simply absent; the tool's
// schema validation produces the user-facing error.
func parseArgs(toolID, tail string) map[string]any {
	fields := strings.Fields(tail)

	switch toolID {
	case "register_player":
		name, phone, rest := splitNamePhone(fields)
		return compact(map[string]any{
			"name":     name,
			"phone":    phone,
			"position": strings.Join(rest, " "),
		})

	case "add_player":
		name, phone, _ := splitNamePhone(fields)
		return compact(map[string]any{"name": name, "phone": phone})

	case "add_team_member":
		name, phone, rest := splitNamePhone(fields)
		return compact(map[string]any{
			"name":  name,
			"phone": phone,
			"role":  strings.Join(rest, " "),
		})

	case "update_player":
		if len(fields) < 2 {
			return nil
		}
		field := strings.ToLower(fields[0])
		if field != "phone" && field != "position" {
			return nil
		}
		return map[string]any{field: strings.Join(fields[1:], " ")}

	case "approve_player", "reject_player", "remove_player":
		if len(fields) == 0 {
			return nil
		}
		return map[string]any{"player_id": fields[0]}

	case "player_status":
		if len(fields) == 0 {
			return nil
		}
		if looksLikePhone(fields[0]) {
			return map[string]any{"phone": fields[0]}
		}
		return map[string]any{"player_id": fields[0]}

	case "create_match":
		return parseCreateMatch(fields)

	case "select_squad":
		if len(fields) < 2 {
			return nil
		}
		ids := make([]string, len(fields)-1)
		copy(ids, fields[1:])
		return map[string]any{"match_id": fields[0], "player_ids": ids}

	case "mark_attendance":
		if len(fields) < 3 {
			return nil
		}
		return map[string]any{
			"match_id":  fields[0],
			"player_id": fields[1],
			"status":    strings.ToLower(fields[2]),
		}

	case "mark_availability", "get_attendance":
		if len(fields) == 0 {
			return nil
		}
		return map[string]any{"match_id": fields[0]}

	case "send_announcement":
		if tail == "" {
			return nil
		}
		return map[string]any{"message": tail}

	case "generate_invite_link":
		if len(fields) == 0 {
			return nil
		}
		return map[string]any{"chat_type": strings.ToLower(fields[0])}

	default:
		return nil
	}
}

// splitNamePhone splits "<name words> <phone> <trailing words>" around
// the first phone-shaped token. Without one, everything is the name.
func splitNamePhone(fields []string) (name, phone string, rest []string) {
	for i, f := range fields {
		if looksLikePhone(f) {
			return strings.Join(fields[:i], " "), f, fields[i+1:]
		}
	}
	return strings.Join(fields, " "), "", nil
}

// looksLikePhone accepts international (+44…) and bare digit strings of
// plausible length.
func looksLikePhone(s string) bool {
	trimmed := strings.TrimPrefix(s, "+")
	if len(trimmed) < 7 {
		return false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseCreateMatch splits "<opponent> <date> [time] [location]
// [competition]". The date token anchors the split because opponents may
// be several words.
func parseCreateMatch(fields []string) map[string]any {
	dateIdx := -1
	for i, f := range fields {
		if dateToken.MatchString(f) {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		if len(fields) == 0 {
			return nil
		}
		return compact(map[string]any{"opponent": strings.Join(fields, " ")})
	}

	date := fields[dateIdx]
	rest := fields[dateIdx+1:]
	if len(rest) > 0 && timeToken.MatchString(rest[0]) {
		date += " " + rest[0]
		rest = rest[1:]
	}

	args := map[string]any{
		"opponent": strings.Join(fields[:dateIdx], " "),
		"date":     date,
	}
	if len(rest) > 0 {
		args["location"] = rest[0]
	}
	if len(rest) > 1 {
		args["competition"] = strings.Join(rest[1:], " ")
	}
	return compact(args)
}

// compact drops empty string values so schema minLength rules see absent
// fields, not empty ones.
func compact(args map[string]any) map[string]any {
	for k, v := range args {
		if s, ok := v.(string); ok && s == "" {
			delete(args, k)
		}
	}
	if len(args) == 0 {
		return nil
	}
	return args
}
