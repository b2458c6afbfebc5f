/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package locale maps the configured language to the id suffix used by
// localized dialogue rows ("intro" + "_en").
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

var suffixes = map[language.Base]string{
	mustBase("en"): "_en",
	mustBase("ja"): "_jp",
}

func mustBase(s string) language.Base {
	b, err := language.ParseBase(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Suffix returns the row id suffix for a BCP 47 tag ("en-GB" -> "_en",
// "ja" -> "_jp"). Unknown or unparsable tags have no suffix.
func Suffix(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return ""
	}
	b, conf := t.Base()
	if conf == language.No {
		return ""
	}
	return suffixes[b]
}

// Apply appends the suffix for tag to id unless id already carries it.
func Apply(id, tag string) string {
	s := Suffix(tag)
	if s == "" || strings.HasSuffix(id, s) {
		return id
	}
	return id + s
}
