package profanity

import (
	"embed"
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"sync"
)

var (
	defaultFilter *Filter
	once          sync.Once
)

//go:embed words.json
var jsonData embed.FS

func loadBannedWords() []string {
	data, err := jsonData.ReadFile("words.json")
	if err != nil {
		log.Fatalf("Failed to read embedded file: %s", err)
	}

	var bannedWords []string
	if err := json.Unmarshal(data, &bannedWords); err != nil {
		log.Fatalf("Failed to unmarshal JSON: %s", err)
	}
	return bannedWords
}

// Filter screens room titles and display names against an embedded word list.
type Filter struct {
	words map[string]struct{}
}

func NewFilter() *Filter {
	once.Do(func() {
		words := make(map[string]struct{})
		for _, w := range loadBannedWords() {
			words[strings.ToLower(w)] = struct{}{}
		}
		defaultFilter = &Filter{words: words}
	})

	return defaultFilter
}

var separators = regexp.MustCompile(`[\s_.\-*/\\|]+`)

// leetspeak substitutions applied before the lookup
var leet = strings.NewReplacer(
	"@", "a", "4", "a",
	"3", "e",
	"1", "i", "!", "i",
	"0", "o",
	"$", "s", "5", "s",
	"7", "t",
)

func (f *Filter) Contains(text string) bool {
	if text == "" {
		return false
	}

	normalized := leet.Replace(strings.ToLower(text))
	for _, token := range separators.Split(normalized, -1) {
		if _, ok := f.words[token]; ok {
			return true
		}
	}

	return false
}
