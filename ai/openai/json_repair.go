// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import "strings"

// extractJSON isolates the JSON document from a model response that may wrap
// it in markdown code fences or surrounding prose. Returns the span from the
// first opening brace or bracket to the matching end of the text; if neither
// is present the input is returned unchanged.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	// Strip markdown fences: ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Trim leading/trailing prose around the outermost document
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var endByte byte = '}'
	if s[start] == '[' {
		endByte = ']'
	}
	end := strings.LastIndexByte(s, endByte)
	if end <= start {
		return s
	}
	return s[start : end+1]
}

// repairJSON attempts to fix common JSON formatting issues from LLM
// responses. It handles keys missing their opening quote (`, type":` becomes
// `, "type":`) and trailing commas before a closing brace or bracket.
func repairJSON(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 64)

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		ch := runes[i]

		// Trailing comma: `,` followed by whitespace and `}` or `]`
		if ch == ',' {
			j := i + 1
			for j < len(runes) && isSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				i++ // drop the comma, keep the whitespace and close
				continue
			}
		}

		if ch != '{' && ch != ',' {
			out.WriteRune(ch)
			i++
			continue
		}

		// After { or , look for an unquoted key: word characters followed
		// by `":` which indicates only the opening quote is missing.
		out.WriteRune(ch)
		i++
		for i < len(runes) && isSpace(runes[i]) {
			out.WriteRune(runes[i])
			i++
		}
		if i >= len(runes) || runes[i] == '"' || !isKeyRune(runes[i]) {
			continue
		}

		keyStart := i
		for i < len(runes) && isKeyRune(runes[i]) {
			i++
		}
		if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			out.WriteRune('"')
			out.WriteString(strings.TrimSpace(string(runes[keyStart:i])))
			// Closing quote is already present at runes[i]
			continue
		}
		// Not a broken key; emit what was skipped
		out.WriteString(string(runes[keyStart:i]))
	}

	return out.String()
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == ' '
}
