// Package command parses operator console input into structured
// commands and validates entry fields at the boundary.
package command

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Compile-time interface check.
var _ domain.CommandParser = (*KeywordParser)(nil)

// KeywordParser matches console input to commands using keywords and
// simple patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex   *regexp.Regexp
	cmd     domain.CommandType
	payload bool // carry the rest of the line as payload
}

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.CommandHelp, false},
		{regexp.MustCompile(`(?i)^(list|ls|schedule|show)$`), domain.CommandList, false},
		{regexp.MustCompile(`(?i)^add\b`), domain.CommandAdd, true},
		{regexp.MustCompile(`(?i)^edit\b`), domain.CommandEdit, true},
		{regexp.MustCompile(`(?i)^(delete|del|rm|remove)\b`), domain.CommandDelete, true},
		{regexp.MustCompile(`(?i)^(on|enable|activate)\b`), domain.CommandEnable, true},
		{regexp.MustCompile(`(?i)^(off|disable|deactivate)\b`), domain.CommandDisable, true},
		{regexp.MustCompile(`(?i)^(test|ring|bell)\b`), domain.CommandTest, true},
		{regexp.MustCompile(`(?i)^auto\s+(on|enable[d]?)$`), domain.CommandAutoOn, false},
		{regexp.MustCompile(`(?i)^auto\s+(off|disable[d]?)$`), domain.CommandAutoOff, false},
		{regexp.MustCompile(`(?i)^school\b`), domain.CommandSchool, true},
		{regexp.MustCompile(`(?i)^voice\b`), domain.CommandVoice, true},
		{regexp.MustCompile(`(?i)^(status|settings|info)$`), domain.CommandStatus, false},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.CommandQuit, false},
	}
	return p
}

// Parse converts one input line into a command.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Command, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Command{Type: domain.CommandUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		if !rule.regex.MatchString(trimmed) {
			continue
		}
		p.log.Debug("matched command: %s", rule.cmd)
		if !rule.payload {
			return &domain.Command{Type: rule.cmd}, nil
		}
		rest := ""
		if parts := strings.SplitN(trimmed, " ", 2); len(parts) == 2 {
			rest = strings.TrimSpace(parts[1])
		}
		return &domain.Command{Type: rule.cmd, Payload: rest}, nil
	}

	p.log.Debug("no match, returning unknown command")
	return &domain.Command{Type: domain.CommandUnknown, Payload: trimmed}, nil
}

// timePattern accepts zero-padded 24h "HH:MM".
var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseEntryFields parses the pipe-separated field list used by add and
// edit:
//
//	<period> | <start HH:MM> | <end HH:MM> | <honorific> | <teacher> | <subject> | <class>
//
// Every field is required; malformed input is rejected here so it never
// becomes a runtime error deeper in.
func ParseEntryFields(payload string) (domain.ScheduleEntry, error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 7 {
		return domain.ScheduleEntry{}, fmt.Errorf("expected 7 fields separated by '|', got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return domain.ScheduleEntry{}, fmt.Errorf("field %d is empty", i+1)
		}
	}

	period, err := strconv.Atoi(parts[0])
	if err != nil || period <= 0 {
		return domain.ScheduleEntry{}, fmt.Errorf("period must be a positive number, got %q", parts[0])
	}

	if !timePattern.MatchString(parts[1]) {
		return domain.ScheduleEntry{}, fmt.Errorf("start time must be HH:MM, got %q", parts[1])
	}
	if !timePattern.MatchString(parts[2]) {
		return domain.ScheduleEntry{}, fmt.Errorf("end time must be HH:MM, got %q", parts[2])
	}

	honorific, ok := domain.ParseHonorific(parts[3])
	if !ok {
		return domain.ScheduleEntry{}, fmt.Errorf("honorific must be Bapak or Ibu, got %q", parts[3])
	}

	return domain.ScheduleEntry{
		Period:    period,
		StartTime: parts[1],
		EndTime:   parts[2],
		Honorific: honorific,
		Teacher:   parts[4],
		Subject:   parts[5],
		ClassName: parts[6],
	}, nil
}

// ParseIndex parses a 1-based list position as shown by the list command.
func ParseIndex(payload string, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		return 0, fmt.Errorf("expected an entry number, got %q", payload)
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("entry number %d out of range (1-%d)", n, max)
	}
	return n - 1, nil
}
