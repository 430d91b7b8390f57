// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Level is the level of the logger.
type Level uint8

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Critical
)

var levelNames = [...]string{
	Trace:    "TRACE",
	Debug:    "DEBUG",
	Info:     "INFO",
	Warn:     "WARN",
	Error:    "ERROR",
	Critical: "CRITICAL",
}

var levelColours = [...]color.Attribute{
	Trace:    color.FgHiCyan,
	Debug:    color.FgHiBlue,
	Info:     color.FgCyan,
	Warn:     color.FgYellow,
	Error:    color.FgHiRed,
	Critical: color.FgRed,
}

// levelAbbreviations are the four letters names also accepted by ParseLevel.
var levelAbbreviations = map[string]Level{
	"TRCE": Trace,
	"DBUG": Debug,
	"EROR": Error,
	"CRIT": Critical,
}

func (level Level) String() (s string) {
	if int(level) >= len(levelNames) {
		return "???"
	}
	return levelNames[level]
}

// ColouredString returns the corresponding coloured
// string for the level.
func (level Level) ColouredString() (s string) {
	attribute := color.Reset
	if int(level) < len(levelColours) {
		attribute = levelColours[level]
	}
	return color.New(attribute).Sprint(level.String())
}

// MarshalText implements encoding.TextMarshaler.
func (level Level) MarshalText() (text []byte, err error) {
	return []byte(level.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseLevel.
func (level *Level) UnmarshalText(text []byte) (err error) {
	*level, err = ParseLevel(string(text))
	return err
}

// ErrLevelNotRecognised is an error returned if the level string is
// not recognised by the ParseLevel function.
var ErrLevelNotRecognised = errors.New("level is not recognised")

// ParseLevel parses a string into a level, and returns an
// error if it fails. It accepts both the full level names
// and their four letters abbreviations.
func ParseLevel(s string) (level Level, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}

	level, ok := levelAbbreviations[s]
	if ok {
		return level, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrLevelNotRecognised, s)
}
