// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dark-bio/tlsdecrypt-go/keylog"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	keylog_command = app.Command("keylog", "Work with captured session secrets.")

	keylog_dump        = keylog_command.Command("dump", "Print the entries of a capture file.")
	keylog_dump_path   = keylog_dump.Arg("file", "Capture file.").Required().String()
	keylog_dump_format = keylog_dump.Flag("format", "Output format.").Default("table").Enum("table", "yaml")
)

// keylogRow is the printable form of a capture entry.
type keylogRow struct {
	Timestamp float64 `yaml:"timestamp"`
	PreMaster string  `yaml:"premaster"`
	Master    string  `yaml:"master"`
}

func doKeylogDump(w io.Writer, path, format string) error {
	fd, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening capture")
	}
	defer fd.Close()

	entries, err := keylog.ReadAll(fd)
	if err != nil {
		return errors.Wrapf(err, "reading %s after %d entries", path, len(entries))
	}
	logger.WithField("entries", len(entries)).Debug("Read capture file")

	rows := make([]keylogRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, keylogRow{
			Timestamp: entry.Timestamp,
			PreMaster: hex.EncodeToString(entry.PreMaster),
			Master:    hex.EncodeToString(entry.Master[:]),
		})
	}
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rows)

	case "table", "":
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"#", "Timestamp", "Pre-master", "Master"})
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		for i, row := range rows {
			table.Append([]string{
				strconv.Itoa(i),
				strconv.FormatFloat(row.Timestamp, 'f', 6, 64),
				row.PreMaster,
				row.Master,
			})
		}
		table.Render()
		return nil

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case keylog_dump.FullCommand():
			err := doKeylogDump(stdout, *keylog_dump_path, *keylog_dump_format)
			kingpin.FatalIfError(err, "keylog dump")

		default:
			return false
		}
		return true
	})
}
