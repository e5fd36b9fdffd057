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
	"github.com/dark-bio/tlsdecrypt-go/prf"
	"github.com/dark-bio/tlsdecrypt-go/suite"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	master_command       = app.Command("master", "Derive the master secret from a pre-master secret.")
	master_premaster     = master_command.Flag("premaster", "Pre-master secret in hex.").Required().String()
	master_client_random = master_command.Flag("client-random", "ClientHello random in hex.").Required().String()
	master_server_random = master_command.Flag("server-random", "ServerHello random in hex.").Required().String()

	keyblock_command       = app.Command("keyblock", "Derive and split the key block of a cipher suite.")
	keyblock_master        = keyblock_command.Flag("master", "Master secret in hex.").Required().String()
	keyblock_client_random = keyblock_command.Flag("client-random", "ClientHello random in hex.").Required().String()
	keyblock_server_random = keyblock_command.Flag("server-random", "ServerHello random in hex.").Required().String()
	keyblock_suite         = keyblock_command.Flag("suite", "Cipher suite id, e.g. 0x002F.").String()
)

// parseRandoms decodes the two hello randoms.
func parseRandoms(client, server string) ([]byte, []byte, error) {
	cr, err := parseHex("client-random", client)
	if err != nil {
		return nil, nil, err
	}
	sr, err := parseHex("server-random", server)
	if err != nil {
		return nil, nil, err
	}
	if len(cr) != prf.RandomSize || len(sr) != prf.RandomSize {
		return nil, nil, errors.Errorf("hello randoms must be %d bytes, have %d and %d", prf.RandomSize, len(cr), len(sr))
	}
	return cr, sr, nil
}

func doMaster(w io.Writer, premaster, client, server string) error {
	pms, err := parseHex("premaster", premaster)
	if err != nil {
		return err
	}
	cr, sr, err := parseRandoms(client, server)
	if err != nil {
		return err
	}
	master, err := prf.MasterSecret(pms, cr, sr)
	if err != nil {
		return errors.Wrap(err, "deriving master secret")
	}
	fmt.Fprintln(w, hex.EncodeToString(master))
	return nil
}

func doKeyBlock(w io.Writer, config_obj *Config, masterHex, client, server, suiteID string) error {
	master, err := parseHex("master", masterHex)
	if err != nil {
		return err
	}
	cr, sr, err := parseRandoms(client, server)
	if err != nil {
		return err
	}
	id, err := parseSuite(pick(suiteID, config_obj.Suite))
	if err != nil {
		return err
	}
	cs, err := suite.LookupSuite(id)
	if err != nil {
		return err
	}
	data, err := suite.LookupCipher(cs.Cipher)
	if err != nil {
		return err
	}
	size := suite.KeyBlockLen(data, cs.Hash)
	block, err := prf.KeyBlock(master, sr, cr, size)
	if err != nil {
		return errors.Wrap(err, "deriving key block")
	}
	keys, err := suite.Split(data, cs.Hash, block)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"suite":  fmt.Sprintf("0x%04x", id),
		"cipher": cs.Cipher,
		"hash":   cs.Hash,
		"length": size,
	}).Debug("Derived key block")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Part", "Client", "Server"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.Append([]string{"MAC secret", hex.EncodeToString(keys.ClientMAC), hex.EncodeToString(keys.ServerMAC)})
	table.Append([]string{"Write key", hex.EncodeToString(keys.ClientKey), hex.EncodeToString(keys.ServerKey)})
	table.Append([]string{"IV", hex.EncodeToString(keys.ClientIV), hex.EncodeToString(keys.ServerIV)})
	table.SetCaption(true, fmt.Sprintf("%s_WITH_%s_%s", cs.KeyExchange, cs.Cipher, cs.Hash))
	table.Render()
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case master_command.FullCommand():
			err := doMaster(stdout, *master_premaster, *master_client_random, *master_server_random)
			kingpin.FatalIfError(err, "master")

		case keyblock_command.FullCommand():
			err := doKeyBlock(stdout, loadConfigOrDie(), *keyblock_master,
				*keyblock_client_random, *keyblock_server_random, *keyblock_suite)
			kingpin.FatalIfError(err, "keyblock")

		default:
			return false
		}
		return true
	})
}
