// SPDX-License-Identifier: GPL-3.0-or-later

package isochannel

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Settings describes a client channel in a YAML document such as:
//
//	name: acquirer
//	host: 10.0.0.1
//	port: 8000
//	dialect: nac
//	header: "6000010000"
//	realm: acquirer-channel
//	observeIO: false
//
// Only name, host, port, and dialect are mandatory.
type Settings struct {
	// Name is the name under which the channel registers.
	Name string `yaml:"name"`

	// Host is the remote host.
	Host string `yaml:"host"`

	// Port is the remote port.
	Port int `yaml:"port"`

	// Dialect selects the framer (see [NewFramer]).
	Dialect string `yaml:"dialect"`

	// Header is the hex-encoded default network header of the dialect.
	Header string `yaml:"header,omitempty"`

	// Realm is attached to every event the channel emits.
	Realm string `yaml:"realm,omitempty"`

	// ObserveIO overrides [Config.ObserveIO] when true.
	ObserveIO bool `yaml:"observeIO,omitempty"`
}

// errInvalidSettings wraps validation failures of [*Settings].
var errInvalidSettings = errors.New("invalid channel settings")

// LoadSettings decodes [*Settings] from YAML, rejecting unknown keys.
func LoadSettings(r io.Reader) (*Settings, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Settings
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidSettings, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: missing name", errInvalidSettings)
	case s.Host == "":
		return fmt.Errorf("%w: missing host", errInvalidSettings)
	case s.Port <= 0 || s.Port > 65535:
		return fmt.Errorf("%w: invalid port %d", errInvalidSettings, s.Port)
	case s.Dialect == "":
		return fmt.Errorf("%w: missing dialect", errInvalidSettings)
	}
	return nil
}

// NewChannel builds the named, registered client [*Channel] described by s.
func (s *Settings) NewChannel(cfg *Config, codec Codec) (*Channel, error) {
	var header []byte
	if s.Header != "" {
		decoded, err := hex.DecodeString(s.Header)
		if err != nil {
			return nil, fmt.Errorf("%w: header: %w", errInvalidSettings, err)
		}
		header = decoded
	}
	framer, err := NewFramer(s.Dialect, header)
	if err != nil {
		return nil, err
	}
	if s.ObserveIO {
		cp := *cfg
		cfg = &cp
		cfg.ObserveIO = true
	}
	c := NewClientChannel(cfg, s.Host, s.Port, framer, codec)
	c.SetLogger(cfg.Logger, s.Realm)
	c.SetName(s.Name)
	return c, nil
}
