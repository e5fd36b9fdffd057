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

	"github.com/alecthomas/kingpin/v2"
	"github.com/dark-bio/tlsdecrypt-go/record"
	"github.com/dark-bio/tlsdecrypt-go/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	record_command = app.Command("record", "Work with TLS records.")

	record_decrypt               = record_command.Command("decrypt", "Decrypt consecutive records of one direction.")
	record_decrypt_master        = record_decrypt.Flag("master", "Master secret in hex.").String()
	record_decrypt_premaster     = record_decrypt.Flag("premaster", "Pre-master secret in hex, used when no master secret is given.").String()
	record_decrypt_client_random = record_decrypt.Flag("client-random", "ClientHello random in hex.").Required().String()
	record_decrypt_server_random = record_decrypt.Flag("server-random", "ServerHello random in hex.").Required().String()
	record_decrypt_suite         = record_decrypt.Flag("suite", "Cipher suite id, e.g. 0x002F.").String()
	record_decrypt_direction     = record_decrypt.Flag("direction", "Writer of the records.").Default("uplink").Enum("uplink", "downlink")
	record_decrypt_seq           = record_decrypt.Flag("seq", "Sequence number of the first record.").Default("0").Uint64()
	record_decrypt_type          = record_decrypt.Flag("type", "Record content type.").Default("23").Uint8()
	record_decrypt_text          = record_decrypt.Flag("text", "Print payloads as quoted text instead of hex.").Bool()
	record_decrypt_in            = record_decrypt.Flag("in", "Record fragment in hex, repeat for consecutive records.").Required().Strings()
)

// recordRequest collects the inputs of a record decryption.
type recordRequest struct {
	Master, PreMaster string
	ClientRandom      string
	ServerRandom      string
	Suite             string
	Direction         string
	Seq               uint64
	Type              uint8
	Text              bool
	Fragments         []string
}

func doRecordDecrypt(w io.Writer, config_obj *Config, req *recordRequest) error {
	cr, sr, err := parseRandoms(req.ClientRandom, req.ServerRandom)
	if err != nil {
		return err
	}
	id, err := parseSuite(pick(req.Suite, config_obj.Suite))
	if err != nil {
		return err
	}
	dir := record.Uplink
	if req.Direction == "downlink" {
		dir = record.Downlink
	}
	state := session.New()
	defer state.Close()

	switch {
	case req.Master != "":
		master, err := parseHex("master", req.Master)
		if err != nil {
			return err
		}
		if _, err := state.Keys(id, master, cr, sr); err != nil {
			return errors.Wrap(err, "installing keys")
		}
	case req.PreMaster != "":
		pms, err := parseHex("premaster", req.PreMaster)
		if err != nil {
			return err
		}
		if _, err := state.KeysFromPreMaster(id, pms, cr, sr); err != nil {
			return errors.Wrap(err, "installing keys")
		}
	default:
		return errors.New("either --master or --premaster is required")
	}
	if err := state.Copy(session.Pending, session.Server); err != nil {
		return err
	}
	for i, in := range req.Fragments {
		fragment, err := parseHex("in", in)
		if err != nil {
			return err
		}
		seq := req.Seq + uint64(i)
		payload, err := state.DecryptRecord(session.Server, dir, req.Type, seq, fragment)
		if err != nil {
			return errors.Wrapf(err, "record %d", seq)
		}
		logger.WithFields(logrus.Fields{
			"seq":       seq,
			"direction": dir,
			"length":    len(payload),
		}).Debug("Decrypted record")

		if req.Text {
			fmt.Fprintf(w, "%q\n", payload)
		} else {
			fmt.Fprintln(w, hex.EncodeToString(payload))
		}
	}
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case record_decrypt.FullCommand():
			err := doRecordDecrypt(stdout, loadConfigOrDie(), &recordRequest{
				Master:       *record_decrypt_master,
				PreMaster:    *record_decrypt_premaster,
				ClientRandom: *record_decrypt_client_random,
				ServerRandom: *record_decrypt_server_random,
				Suite:        *record_decrypt_suite,
				Direction:    *record_decrypt_direction,
				Seq:          *record_decrypt_seq,
				Type:         *record_decrypt_type,
				Text:         *record_decrypt_text,
				Fragments:    *record_decrypt_in,
			})
			kingpin.FatalIfError(err, "record decrypt")

		default:
			return false
		}
		return true
	})
}
