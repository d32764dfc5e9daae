package fuzztests

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
)

// repoSeeds collects every file with the given extension under the
// repository root. Hidden and underscore directories are skipped.
func repoSeeds(ext string) [][]byte {
	root := filepath.Join("..", "..")
	var seeds [][]byte
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		// #nosec G304 -- path comes from repository walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		seeds = append(seeds, clampSeed(src))
		return nil
	})
	return seeds
}

func addProseSeeds(f *testing.F) {
	for _, seed := range repoSeeds(".md") {
		f.Add(seed)
	}
	f.Add([]byte{})
	f.Add([]byte("# title\n\nsome words that wrap\n"))
	f.Add([]byte("```json\n{\"a\":[1,2]}\n```\n"))
	f.Add([]byte("> quoted\n>\n> ```json\n{}\n> ```\n"))
}

func addDataSeeds(f *testing.F) {
	for _, seed := range repoSeeds(".json") {
		f.Add(seed)
	}
	// json-блоки из markdown тоже годятся
	for _, doc := range repoSeeds(".md") {
		for _, block := range fencedBlocks(doc, "json") {
			f.Add(block)
		}
	}
	f.Add([]byte{})
	f.Add([]byte("{}"))
	f.Add([]byte("\ufeff{\"a\": 1,}"))
	f.Add([]byte("[1, 2, [3, {\"x\": null}]]"))
	f.Add([]byte("{\"a\": 1 // trailing\n}"))
	f.Add([]byte("{\n// bueno-fmt-ignore\n\"a\":[1,  2], /* b */ \"b\": {}}"))
}

// fencedBlocks extracts the bodies of ``` blocks tagged with tag.
func fencedBlocks(doc []byte, tag string) [][]byte {
	var out [][]byte
	var block [][]byte
	inBlock := false
	for _, line := range bytes.Split(doc, []byte{'\n'}) {
		trimmed := strings.TrimSpace(string(line))
		if !inBlock && strings.HasPrefix(trimmed, "```"+tag) {
			inBlock = true
			block = block[:0]
			continue
		}
		if inBlock && strings.HasPrefix(trimmed, "```") {
			if snippet := clampSeed(bytes.Join(block, []byte{'\n'})); len(snippet) > 0 {
				out = append(out, snippet)
			}
			inBlock = false
			continue
		}
		if inBlock {
			// сохраняем оригинальные строки, включая отступы
			block = append(block, line)
		}
	}
	return out
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
