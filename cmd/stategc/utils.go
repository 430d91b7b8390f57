// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ChainSafe/stategc/internal/log"
	"github.com/fatih/color"
	terminal "golang.org/x/term"
)

const confirmCharacter = "Y"

// setupLogger sets up the global logger.
func setupLogger(config LogConfig) {
	log.Patch(
		log.SetWriter(os.Stderr),
		log.SetLevel(config.Level),
		log.SetCaller(config.Caller),
		log.SetColour(isTerminal(os.Stderr)),
	)
}

func isTerminal(file *os.File) bool {
	return terminal.IsTerminal(int(file.Fd()))
}

// confirmMessage prints msg to w and returns true if the
// line read from r is "Y", case insensitively.
func confirmMessage(r io.Reader, w io.Writer, msg string) bool {
	reader := bufio.NewReader(r)
	fmt.Fprintln(w, msg)
	fmt.Fprint(w, "> ")
	text, _ := reader.ReadString('\n')
	text = strings.TrimSpace(text)
	return strings.EqualFold(confirmCharacter, text)
}

var (
	headerColour  = color.New(color.Bold)
	successColour = color.New(color.FgGreen)
	warnColour    = color.New(color.FgYellow)
	failColour    = color.New(color.FgRed, color.Bold)
)
