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

	"github.com/alecthomas/kingpin/v2"
	"github.com/dark-bio/tlsdecrypt-go/rsa"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	key_command = app.Command("key", "Work with server private keys.")

	key_inspect          = key_command.Command("inspect", "Import a private key and print its parameters.")
	key_inspect_path     = key_inspect.Flag("key", "Private key file, PEM or DER.").String()
	key_inspect_password = key_inspect.Flag("password", "Private key password.").String()

	premaster_command  = app.Command("premaster", "Recover the pre-master secret of an RSA key exchange.")
	premaster_key      = premaster_command.Flag("key", "Private key file, PEM or DER.").String()
	premaster_password = premaster_command.Flag("password", "Private key password.").String()
	premaster_in       = premaster_command.Flag("in", "Encrypted pre-master secret in hex.").Required().String()
)

// loadKey imports the private key named by the flag or the config.
func loadKey(config_obj *Config, path, password string) (*rsa.Key, error) {
	path = pick(path, config_obj.Key)
	if path == "" {
		return nil, errors.New("no private key given, use --key or the config file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading private key")
	}
	var pass *string
	if password = pick(password, config_obj.Password); password != "" {
		pass = &password
	}
	key, err := rsa.Parse(data, pass)
	if err != nil {
		return nil, errors.Wrapf(err, "importing %s", path)
	}
	logger.WithFields(logrus.Fields{
		"path": path,
		"bits": key.N.BitLen(),
	}).Debug("Imported private key")
	return key, nil
}

func doKeyInspect(w io.Writer, config_obj *Config, path, password string) error {
	key, err := loadKey(config_obj, path, password)
	if err != nil {
		return err
	}
	defer key.Release()

	fp := key.Fingerprint()
	fmt.Fprintf(w, "modulus:     %d bits\n", key.N.BitLen())
	fmt.Fprintf(w, "exponent:    0x%s\n", key.E.Text())
	fmt.Fprintf(w, "private:     %v\n", key.IsPrivate())
	fmt.Fprintf(w, "fingerprint: %s\n", hex.EncodeToString(fp[:]))
	return nil
}

func doPremaster(w io.Writer, config_obj *Config, path, password, in string) error {
	ciphertext, err := parseHex("in", in)
	if err != nil {
		return err
	}
	key, err := loadKey(config_obj, path, password)
	if err != nil {
		return err
	}
	defer key.Release()

	pms, err := key.DecryptPKCS1v15(ciphertext)
	if err != nil {
		return errors.Wrap(err, "decrypting pre-master secret")
	}
	logger.WithField("length", len(pms)).Debug("Recovered pre-master secret")
	fmt.Fprintln(w, hex.EncodeToString(pms))
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case key_inspect.FullCommand():
			err := doKeyInspect(stdout, loadConfigOrDie(), *key_inspect_path, *key_inspect_password)
			kingpin.FatalIfError(err, "key inspect")

		case premaster_command.FullCommand():
			err := doPremaster(stdout, loadConfigOrDie(), *premaster_key, *premaster_password, *premaster_in)
			kingpin.FatalIfError(err, "premaster")

		default:
			return false
		}
		return true
	})
}
