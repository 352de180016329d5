package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/thematic/core"
)

// interviewerNames are speaker labels treated as the interviewer rather than
// a participant.
var interviewerNames = map[string]bool{
	"interviewer": true,
	"moderator":   true,
	"facilitator": true,
	"researcher":  true,
}

// loadTranscripts reads every .txt file in dir, splits each into paragraph
// chunks, and returns the chunks plus the full document texts keyed by
// filename for quote grounding. Files are processed in name order so chunk
// order is deterministic.
func loadTranscripts(dir string) ([]*core.TextChunk, map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read transcript directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var chunks []*core.TextChunk
	documents := make(map[string]string, len(names))

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		text := string(data)
		documents[name] = text
		chunks = append(chunks, chunkParagraphs(text, name)...)
	}

	return chunks, documents, nil
}

// chunkParagraphs splits transcript text into paragraph chunks. Paragraphs
// are separated by blank lines; a leading "Name: " prefix on a paragraph is
// taken as speaker attribution and carried forward to following paragraphs
// until the speaker changes.
func chunkParagraphs(text, sourceFile string) []*core.TextChunk {
	var chunks []*core.TextChunk
	var currentSpeaker string

	for _, para := range splitParagraphs(text) {
		speaker, body := splitSpeaker(para)
		if speaker != "" {
			currentSpeaker = speaker
		}
		if strings.TrimSpace(body) == "" {
			continue
		}

		chunk := core.NewTextChunk(body, sourceFile)
		chunk.Speaker = currentSpeaker
		chunk.IsInterviewer = interviewerNames[strings.ToLower(currentSpeaker)]
		chunks = append(chunks, chunk)
	}

	return chunks
}

// splitParagraphs breaks text on blank lines, joining wrapped lines within a
// paragraph with single spaces.
func splitParagraphs(text string) []string {
	var paragraphs []string
	var lines []string

	flush := func() {
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, " "))
			lines = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	flush()

	return paragraphs
}

// splitSpeaker detects a "Name: rest" speaker prefix. The name must be short
// and free of sentence punctuation so ordinary prose with a colon is not
// mistaken for attribution.
func splitSpeaker(para string) (speaker, body string) {
	idx := strings.Index(para, ":")
	if idx <= 0 || idx > 40 {
		return "", para
	}
	name := strings.TrimSpace(para[:idx])
	if name == "" || strings.ContainsAny(name, ".!?,") {
		return "", para
	}
	// Speaker labels are a few words at most
	if len(strings.Fields(name)) > 3 {
		return "", para
	}
	return name, strings.TrimSpace(para[idx+1:])
}

// readQuestionsFile loads research questions one per line. Blank lines and
// '#' comments are skipped.
func readQuestionsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	defer file.Close()

	var questions []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	return questions, nil
}
