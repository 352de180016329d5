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


// Package research holds the research question model and the relevance
// scorer that biases the rest of the engine toward those questions.
//
// A Scorer embeds the question set once and then scores arbitrary text by
// cosine similarity against that table, memoizing results in a bounded
// per-instance cache. There is no process-wide state: concurrent runs that
// must not share a cache simply construct separate scorers.
package research
