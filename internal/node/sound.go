/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package node

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// ClipType tells the audio presenter whether a clip repeats.
type ClipType string

const (
	ClipOneshot ClipType = "oneshot"
	ClipLoop    ClipType = "loop"
)

// Sound is an audio descriptor. Data holds the raw clip once loaded.
type Sound struct {
	FileName    string   `json:"fileName"`
	ClipType    ClipType `json:"clipType"`
	VolumeScale float64  `json:"volumeScale"`
	PitchScale  float64  `json:"pitchScale"`
	Priority    int      `json:"priority"`
	Clip        string   `json:"clip,omitempty"`
	Data        []byte   `json:"-"`
}

// DefaultSound returns a descriptor with the default playback parameters.
func DefaultSound(fileName string) *Sound {
	return &Sound{FileName: fileName, ClipType: ClipOneshot, VolumeScale: 1, PitchScale: 1, Priority: 10}
}

//go:embed sound.schema.json
var soundSchemaJSON []byte

var soundSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(soundSchemaJSON))
})

// DecodeSound validates a JSON sound descriptor and fills unset fields with
// the defaults of DefaultSound.
func DecodeSound(data []byte) (*Sound, error) {
	schema, err := soundSchema()
	if err != nil {
		return nil, fmt.Errorf("sound schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: sound descriptor: %v", ErrResourceLoad, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: sound descriptor: %s", ErrResourceLoad, strings.Join(msgs, "; "))
	}
	s := DefaultSound("")
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: sound descriptor: %v", ErrResourceLoad, err)
	}
	return s, nil
}
