package envelope

import (
	"encoding/json"
	"math"
	"strings"
)

// field describes one canonical field and the names it may arrive under.
type field struct {
	name     string
	aliases  []string
	required bool
}

// fields is ordered as the canonical record; missing-field reports follow it.
var fields = []field{
	{name: "fullName", required: true},
	{name: "userId", required: true},
	{name: "userType", required: true},
	{name: "systemId", required: true},
	{name: "systemTag", required: true},
	{name: "timestamp", required: true},
	{name: "authCode", aliases: []string{"realTimeAuthCode"}, required: true},
	{name: "encryptedToken", aliases: []string{"encryptedPasswordToken"}, required: true},
	{name: "twoFactorKey", aliases: []string{"twoFactorSetupKey"}},
	{name: "department"},
	{name: "course"},
	{name: "year"},
	{name: "section"},
	{name: "position"},
	{name: "role"},
}

// resolve folds the raw payload into a canonical Envelope and returns the
// required fields that were absent under every accepted name.
func resolve(raw map[string]any) (Envelope, []string) {
	var (
		env     Envelope
		missing []string
	)
	for _, f := range fields {
		v, ok := lookup(raw, f)
		if !ok {
			if f.required {
				missing = append(missing, f.name)
			}
			continue
		}
		assign(&env, f.name, v)
	}
	return env, missing
}

// lookup returns the first usable value under the canonical name, then under each alias.
func lookup(raw map[string]any, f field) (any, bool) {
	for _, name := range append([]string{f.name}, f.aliases...) {
		v, ok := raw[name]
		if !ok {
			continue
		}
		if f.name == "timestamp" {
			if ms, ok := asMillis(v); ok {
				return ms, true
			}
			continue
		}
		if s, ok := asString(v); ok {
			return s, true
		}
	}
	return nil, false
}

func assign(env *Envelope, name string, v any) {
	if name == "timestamp" {
		env.Timestamp = v.(int64)
		return
	}
	s := v.(string)
	switch name {
	case "fullName":
		env.FullName = s
	case "userId":
		env.UserID = s
	case "userType":
		env.UserType = UserType(s)
	case "systemId":
		env.SystemID = s
	case "systemTag":
		env.SystemTag = s
	case "authCode":
		env.AuthCode = s
	case "encryptedToken":
		env.EncryptedToken = s
	case "twoFactorKey":
		env.TwoFactorKey = s
	case "department":
		env.Department = s
	case "course":
		env.Course = s
	case "year":
		env.Year = s
	case "section":
		env.Section = s
	case "position":
		env.Position = s
	case "role":
		env.Role = s
	}
}

// asString accepts non-blank strings. Numbers are accepted for fields such as
// authCode or year that older generators emitted unquoted.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return "", false
		}
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

func asMillis(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, i > 0
	}
	f, err := n.Float64()
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
