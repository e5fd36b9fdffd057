// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tlsdecrypt recovers TLS 1.0/1.1 session keys from a server private
// key or a capture of session secrets, and decrypts individual records.
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"
)

// CommandHandler runs the command if it owns it and reports whether it did.
type CommandHandler func(command string) bool

var (
	app = kingpin.New("tlsdecrypt",
		"Passive TLS 1.0/1.1 session key recovery and record decryption.")

	config_path = app.Flag("config", "YAML file with default key settings.").
			Short('c').Envar("TLSDECRYPT_CONFIG").String()

	verbose_flag = app.Flag("verbose", "Enable debug logging.").Short('v').
			Default("false").Bool()

	command_handlers []CommandHandler

	// Output sink of all commands, swapped out by tests.
	stdout io.Writer = os.Stdout

	logger = logrus.New()
)

// initLogging configures the shared logger from the global flags.
func initLogging() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
	if *verbose_flag {
		logger.SetLevel(logrus.DebugLevel)
	}
}

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	initLogging()

	for _, command_handler := range command_handlers {
		if command_handler(command) {
			break
		}
	}
}
