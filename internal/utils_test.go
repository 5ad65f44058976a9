/*
 * Copyright (c) 2025. Anton Starikov -- All Rights Reserved
 *
 * This file is part of MZUFHC project.
 *
 * MZUFHC is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/mzufhc/internal/config"
)

type fakeMessage struct {
	topic   string
	payload string
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return []byte(m.payload) }
func (m fakeMessage) Ack()              {}

func TestExtractF64Plain(t *testing.T) {
	v, err := extractF64PlainOrJson(fakeMessage{topic: "t", payload: "19.75"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 19.75, v)

	_, err = extractF64PlainOrJson(fakeMessage{topic: "t", payload: "warm"}, nil)
	assert.Error(t, err)
}

func TestExtractF64Json(t *testing.T) {
	msg := fakeMessage{topic: "t", payload: `{"temperature": 20.4, "humidity": 55}`}

	v, err := extractF64PlainOrJson(msg, config.GetPTR("temperature"))
	require.NoError(t, err)
	assert.Equal(t, 20.4, v)

	_, err = extractF64PlainOrJson(msg, config.GetPTR("pressure"))
	assert.Error(t, err)

	_, err = extractF64PlainOrJson(fakeMessage{topic: "t", payload: "not json"}, config.GetPTR("temperature"))
	assert.Error(t, err)
}

func TestExtractBinary(t *testing.T) {
	cases := []struct {
		payload string
		want    bool
	}{
		{"ON", true},
		{"on", true},
		{"Open", true},
		{"1", true},
		{"true", true},
		{"OFF", false},
		{"closed", false},
		{"0", false},
	}
	for _, tc := range cases {
		got, err := extractBinary(fakeMessage{topic: "t", payload: tc.payload}, nil, "ON")
		require.NoError(t, err, "payload=%q", tc.payload)
		assert.Equal(t, tc.want, got, "payload=%q", tc.payload)
	}

	_, err := extractBinary(fakeMessage{topic: "t", payload: "maybe"}, nil, "ON")
	assert.Error(t, err)

	// A custom on value wins over the stock spellings.
	got, err := extractBinary(fakeMessage{topic: "t", payload: "detected"}, nil, "detected")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestExtractBinaryJsonEntry(t *testing.T) {
	msg := fakeMessage{topic: "t", payload: `{"contact": false}`}

	got, err := extractBinary(msg, config.GetPTR("contact"), "ON")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestParseBoolPayload(t *testing.T) {
	for _, s := range []string{"true", "ON", " 1 "} {
		v, err := parseBoolPayload(s)
		require.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"false", "off", "0"} {
		v, err := parseBoolPayload(s)
		require.NoError(t, err, s)
		assert.False(t, v, s)
	}
	_, err := parseBoolPayload("42")
	assert.Error(t, err)
}

func TestLastTopicElement(t *testing.T) {
	assert.Equal(t, "setpoint", lastTopicElement("mzufhc/control/zone/living/setpoint"))
	assert.Equal(t, "mode", lastTopicElement("mode"))
}
