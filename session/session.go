// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session tracks the cipher contexts of one observed TLS connection
// across renegotiations. A State holds three connection states (the current
// server observed one, the current client observed one and the pending one),
// each with a server write and a client write context.
//
// Contexts may be shared between connection states after a Copy. A context
// is only closed once the last state referencing it lets go of it.
//
// A State is not safe for concurrent use.
package session

import (
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/errs"
	"github.com/dark-bio/tlsdecrypt-go/prf"
	"github.com/dark-bio/tlsdecrypt-go/record"
	"github.com/dark-bio/tlsdecrypt-go/suite"
)

// ID names one of the connection states.
type ID int

const (
	Server ID = iota
	Client
	Pending
)

// String implements fmt.Stringer.
func (id ID) String() string {
	switch id {
	case Server:
		return "server"
	case Client:
		return "client"
	case Pending:
		return "pending"
	default:
		return fmt.Sprintf("ID(%d)", int(id))
	}
}

// Slot is one connection state. The MAC parameters are only set when the
// slot was keyed from a cipher suite.
type Slot struct {
	ServerWrite *record.Cipher
	ClientWrite *record.Cipher

	hash     suite.Hash
	keyBlock []byte
}

// context returns the cipher field written by a traffic direction.
func (s *Slot) context(dir record.Direction) (**record.Cipher, error) {
	switch dir {
	case record.Uplink:
		return &s.ClientWrite, nil
	case record.Downlink:
		return &s.ServerWrite, nil
	default:
		return nil, fmt.Errorf("%w: session: unknown direction %d", errs.ErrKeyState, int(dir))
	}
}

// State holds the connection states of one session.
type State struct {
	slots [3]Slot
}

// New creates a session with all contexts empty.
func New() *State {
	return new(State)
}

// slot returns the connection state with the given id.
func (s *State) slot(id ID) (*Slot, error) {
	if id < Server || id > Pending {
		return nil, fmt.Errorf("%w: session: unknown state %d", errs.ErrKeyState, int(id))
	}
	return &s.slots[id], nil
}

// Slot returns a copy of a connection state for inspection.
func (s *State) Slot(id ID) (Slot, error) {
	slot, err := s.slot(id)
	if err != nil {
		return Slot{}, err
	}
	return *slot, nil
}

// referenced reports whether any slot field still points at c.
func (s *State) referenced(c *record.Cipher) bool {
	for i := range s.slots {
		if s.slots[i].ServerWrite == c || s.slots[i].ClientWrite == c {
			return true
		}
	}
	return false
}

// release closes c unless another slot still references it.
func (s *State) release(c *record.Cipher) {
	if c != nil && !s.referenced(c) {
		c.Close()
	}
}

// InitPending creates a cipher context for one direction of the pending
// state, replacing whatever context was there.
func (s *State) InitPending(dir record.Direction, alg record.Algorithm, iv, key []byte) error {
	c, err := record.NewCipher(alg, iv, key)
	if err != nil {
		return err
	}
	field, err := s.slots[Pending].context(dir)
	if err != nil {
		c.Close()
		return err
	}
	old := *field
	*field = c
	s.release(old)
	return nil
}

// Copy makes the contexts of one state current in another as well. Both
// states share the contexts afterwards. Contexts the destination held that
// no state references any more are closed.
func (s *State) Copy(from, to ID) error {
	src, err := s.slot(from)
	if err != nil {
		return err
	}
	dst, err := s.slot(to)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	old := *dst
	*dst = *src
	s.release(old.ServerWrite)
	s.release(old.ClientWrite)
	return nil
}

// Deinit empties a state, closing its contexts unless another state still
// uses them.
func (s *State) Deinit(id ID) error {
	slot, err := s.slot(id)
	if err != nil {
		return err
	}
	old := *slot
	*slot = Slot{}
	s.release(old.ServerWrite)
	s.release(old.ClientWrite)
	return nil
}

// ClearRef drops the reference a state holds for one direction without
// closing the context.
func (s *State) ClearRef(id ID, dir record.Direction) error {
	slot, err := s.slot(id)
	if err != nil {
		return err
	}
	field, err := slot.context(dir)
	if err != nil {
		return err
	}
	*field = nil
	return nil
}

// Close empties every state and closes all contexts.
func (s *State) Close() {
	for id := Server; id <= Pending; id++ {
		s.Deinit(id)
	}
}

// Cipher returns the context of one direction of a state.
func (s *State) Cipher(id ID, dir record.Direction) (*record.Cipher, error) {
	slot, err := s.slot(id)
	if err != nil {
		return nil, err
	}
	field, err := slot.context(dir)
	if err != nil {
		return nil, err
	}
	if *field == nil {
		return nil, fmt.Errorf("%w: session: no %s context in %s state", errs.ErrKeyState, dir, id)
	}
	return *field, nil
}

// DecryptRecord decrypts the fragment of a record written in the given
// direction through a current state. Block cipher padding is checked and
// stripped. When the state was keyed from a cipher suite, the trailing MAC is
// verified against the sequence number and stripped too.
func (s *State) DecryptRecord(id ID, dir record.Direction, recType byte, seq uint64, fragment []byte) ([]byte, error) {
	if id == Pending {
		return nil, fmt.Errorf("%w: session: pending state cannot decrypt", errs.ErrKeyState)
	}
	c, err := s.Cipher(id, dir)
	if err != nil {
		return nil, err
	}
	plain := make([]byte, len(fragment))
	if err := c.Decrypt(plain, fragment); err != nil {
		return nil, err
	}
	if c.BlockSize() > 0 {
		if plain, err = unpad(plain); err != nil {
			return nil, err
		}
	}
	slot := &s.slots[id]
	if slot.hash == suite.HashNULL {
		return plain, nil
	}
	alg, err := slot.hash.Digest()
	if err != nil {
		return nil, err
	}
	payloadLen := len(plain) - slot.hash.Size()
	if payloadLen < 0 {
		return nil, fmt.Errorf("%w: session: %d byte record too short for a MAC", errs.ErrMalformedEncoding, len(plain))
	}
	return record.VerifyMAC(dir, alg, slot.keyBlock, recType, seq, payloadLen, plain)
}

// unpad strips TLS block cipher padding: a run of n+1 bytes of value n.
func unpad(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, fmt.Errorf("%w: session: empty block cipher record", errs.ErrMalformedEncoding)
	}
	n := int(plain[len(plain)-1])
	if n+1 > len(plain) {
		return nil, fmt.Errorf("%w: session: bad record padding", errs.ErrVerificationFailure)
	}
	for _, b := range plain[len(plain)-n-1:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: session: bad record padding", errs.ErrVerificationFailure)
		}
	}
	return plain[:len(plain)-n-1], nil
}

// Keys derives the key block of a cipher suite from a master secret and the
// hello randoms, and installs both directions into the pending state. The
// split key block is returned for inspection.
func (s *State) Keys(id uint16, master, clientRandom, serverRandom []byte) (*suite.Keys, error) {
	cs, err := suite.LookupSuite(id)
	if err != nil {
		return nil, err
	}
	data, err := suite.LookupCipher(cs.Cipher)
	if err != nil {
		return nil, err
	}
	if data.Exportable() || (data.Alg == record.NULL && data.Cipher != suite.CipherNULL) {
		return nil, fmt.Errorf("%w: session: cipher %s not supported", errs.ErrUnsupportedAlgorithm, data.Cipher)
	}
	block, err := prf.KeyBlock(master, serverRandom, clientRandom, suite.KeyBlockLen(data, cs.Hash))
	if err != nil {
		return nil, err
	}
	keys, err := suite.Split(data, cs.Hash, block)
	if err != nil {
		return nil, err
	}
	if err := s.InitPending(record.Uplink, data.Alg, keys.ClientIV, keys.ClientKey); err != nil {
		return nil, err
	}
	if err := s.InitPending(record.Downlink, data.Alg, keys.ServerIV, keys.ServerKey); err != nil {
		return nil, err
	}
	s.slots[Pending].hash = cs.Hash
	s.slots[Pending].keyBlock = block
	return keys, nil
}

// KeysFromPreMaster is Keys for a recovered pre-master secret.
func (s *State) KeysFromPreMaster(id uint16, preMaster, clientRandom, serverRandom []byte) (*suite.Keys, error) {
	master, err := prf.MasterSecret(preMaster, clientRandom, serverRandom)
	if err != nil {
		return nil, err
	}
	return s.Keys(id, master, clientRandom, serverRandom)
}
