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

// Package pipeline orchestrates a full analysis run: embedding the input
// chunks, scoring them against the research questions, clustering in the
// hybrid space, synthesizing one theme per cluster, and validating the
// result for question coverage and quote grounding.
//
// The pipeline degrades rather than aborts wherever a stage allows it:
// chunks whose embedding or scoring fails are excluded with a warning,
// oracle failures during synthesis skip the affected cluster, and quote
// extraction failures yield zero quotes for the affected pair. Only empty
// input, a malformed question list, and configuration errors are fatal.
package pipeline
