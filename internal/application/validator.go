package application

import (
	"strconv"
	"strings"

	"buddy/internal/domain"
)

// Validate gates a raw intent against the capability table and the
// confidence threshold. It is a pure function: the same intent and
// table always produce the same result. The returned action carries the
// table's resolved reference, so nothing downstream re-interprets model
// text.
//
// The checks run in a fixed order: confidence first (acting on a guess
// is worse than refusing a valid target), then the per-action rules.
func Validate(raw domain.RawIntent, table domain.CapabilityTable, minConfidence float64) (domain.ResolvedAction, error) {
	if raw.Confidence < minConfidence {
		return domain.ResolvedAction{}, domain.Rejectf(domain.RejectLowConfidence,
			"confidence %.2f below threshold %.2f", raw.Confidence, minConfidence)
	}

	switch raw.Action {
	case domain.ActionUnknown:
		// An explicit "I don't know" carries no actionable target.
		return domain.ResolvedAction{}, domain.Rejectf(domain.RejectLowConfidence, "model classified command as unknown")

	case domain.ActionAnswer:
		if raw.Response == "" {
			return domain.ResolvedAction{}, domain.Rejectf(domain.RejectMalformedReply, "answer intent without response text")
		}
		return domain.ResolvedAction{Kind: domain.ResolvedSpeak, Response: raw.Response}, nil

	case domain.ActionOpenFile:
		if raw.Target == "" {
			return domain.ResolvedAction{}, domain.Rejectf(domain.RejectMalformedReply, "open_file intent without target")
		}
		path, ok := table.File(raw.Target)
		if !ok {
			return domain.ResolvedAction{}, domain.Rejectf(domain.RejectUnknownTarget, "no file named %q", raw.Target)
		}
		return domain.ResolvedAction{Kind: domain.ResolvedOpenFile, Target: raw.Target, Path: path}, nil

	case domain.ActionOpenApp:
		if raw.Target == "" {
			return domain.ResolvedAction{}, domain.Rejectf(domain.RejectMalformedReply, "open_app intent without target")
		}
		command, ok := table.App(raw.Target)
		if !ok {
			return domain.ResolvedAction{}, domain.Rejectf(domain.RejectUnknownTarget, "no application named %q", raw.Target)
		}
		return domain.ResolvedAction{Kind: domain.ResolvedOpenApp, Target: raw.Target, Command: command}, nil

	case domain.ActionSystem:
		if raw.Target == "" {
			return domain.ResolvedAction{}, domain.Rejectf(domain.RejectMalformedReply, "system intent without target")
		}
		return validateSystem(raw.Target, table)
	}

	// Parsing already rejected anything outside the enumerated actions.
	return domain.ResolvedAction{}, domain.Rejectf(domain.RejectMalformedReply, "unhandled action %q", raw.Action)
}

func validateSystem(target string, table domain.CapabilityTable) (domain.ResolvedAction, error) {
	name := strings.ToLower(strings.TrimSpace(target))
	var level *int

	if strings.HasPrefix(name, "volume_set") {
		parsed, err := parseVolumeLevel(name)
		if err != nil {
			return domain.ResolvedAction{}, err
		}
		name = "volume_set"
		level = &parsed
	}

	if !table.SystemEnabled(name) {
		return domain.ResolvedAction{}, domain.Rejectf(domain.RejectUnknownTarget, "system action %q not enabled", name)
	}

	return domain.ResolvedAction{
		Kind:         domain.ResolvedRunSystem,
		Target:       name,
		SystemAction: name,
		Level:        level,
	}, nil
}

// parseVolumeLevel pulls the numeric argument out of targets like
// "volume_set 30" or "volume_set_30".
func parseVolumeLevel(target string) (int, error) {
	var digits strings.Builder
	for _, r := range target {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	if digits.Len() == 0 {
		return 0, domain.Rejectf(domain.RejectMalformedReply, "volume_set without a level in %q", target)
	}

	level, err := strconv.Atoi(digits.String())
	if err != nil || level < 0 || level > 100 {
		return 0, domain.Rejectf(domain.RejectMalformedReply, "volume level in %q outside 0-100", target)
	}
	return level, nil
}
