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


package research

import (
	"fmt"
	"strings"

	"github.com/poiesic/thematic/core"
)

// QuestionSet is the ordered research question list for a run, plus optional
// hypotheses. Order is significant: the index is the stable question
// identifier used everywhere downstream. Immutable once constructed.
type QuestionSet struct {
	questions  []string
	hypotheses []string
}

// NewQuestionSet builds a question set. An empty question list is allowed
// (relevance scoring degrades to a neutral score), but blank entries are
// rejected since identity is positional.
func NewQuestionSet(questions, hypotheses []string) (*QuestionSet, error) {
	for i, q := range questions {
		if strings.TrimSpace(q) == "" {
			return nil, fmt.Errorf("%w: %w (index %d)", core.ErrConfiguration, core.ErrEmptyQuestion, i)
		}
	}
	for i, h := range hypotheses {
		if strings.TrimSpace(h) == "" {
			return nil, fmt.Errorf("%w: blank hypothesis (index %d)", core.ErrConfiguration, i)
		}
	}

	qs := &QuestionSet{
		questions:  make([]string, len(questions)),
		hypotheses: make([]string, len(hypotheses)),
	}
	copy(qs.questions, questions)
	copy(qs.hypotheses, hypotheses)
	return qs, nil
}

// Questions returns the ordered question list.
func (qs *QuestionSet) Questions() []string {
	out := make([]string, len(qs.questions))
	copy(out, qs.questions)
	return out
}

// Hypotheses returns the hypothesis list, possibly empty.
func (qs *QuestionSet) Hypotheses() []string {
	out := make([]string, len(qs.hypotheses))
	copy(out, qs.hypotheses)
	return out
}

// Question returns the question text at the given index.
func (qs *QuestionSet) Question(i int) string {
	return qs.questions[i]
}

// Len returns the number of primary questions.
func (qs *QuestionSet) Len() int {
	return len(qs.questions)
}

// allTexts returns questions followed by hypotheses, the order the embedding
// table is built in.
func (qs *QuestionSet) allTexts() []string {
	all := make([]string, 0, len(qs.questions)+len(qs.hypotheses))
	all = append(all, qs.questions...)
	all = append(all, qs.hypotheses...)
	return all
}
