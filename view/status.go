// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package view

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/rditech/rdi-hitview/view/message"
)

// Status is an ordered set of key/value pairs shown above the figures of a
// session.
type Status struct {
	Keys       []string
	StringData map[string]string
}

func (s *Status) SetString(key, value string) {
	if s.StringData == nil {
		s.StringData = make(map[string]string)
	}
	if _, ok := s.StringData[key]; !ok {
		s.Keys = append(s.Keys, key)
	}
	s.StringData[key] = value
}

// Msg encodes the status as a "status" message. The payload keeps the key
// order; the metadata carries the same values for lookup.
func (s *Status) Msg() (*message.Msg, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal status")
	}

	msg := message.NewMsg("status")
	for k, v := range s.StringData {
		msg.Metadata[k] = v
	}
	msg.Payload = payload
	return msg, nil
}
