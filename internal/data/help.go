package data

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content/help.yaml content/motd.txt
var contentFS embed.FS

// HelpTopic is one entry in the help index.
type HelpTopic struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Text     string   `yaml:"text"`
}

type helpFile struct {
	Topics []HelpTopic `yaml:"topics"`
}

// HelpTable resolves help keywords to topics.
type HelpTable struct {
	topics []HelpTopic
	index  map[string]*HelpTopic
}

// LoadHelp parses the embedded help topics and MOTD.
func LoadHelp() (*HelpTable, string, error) {
	raw, err := contentFS.ReadFile("content/help.yaml")
	if err != nil {
		return nil, "", fmt.Errorf("read help: %w", err)
	}
	var f helpFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, "", fmt.Errorf("parse help: %w", err)
	}
	t := &HelpTable{topics: f.Topics, index: make(map[string]*HelpTopic)}
	for i := range t.topics {
		topic := &t.topics[i]
		t.index[lower(topic.Name)] = topic
		for _, kw := range topic.Keywords {
			t.index[lower(kw)] = topic
		}
	}

	motd, err := contentFS.ReadFile("content/motd.txt")
	if err != nil {
		return nil, "", fmt.Errorf("read motd: %w", err)
	}
	return t, strings.TrimRight(string(motd), "\n"), nil
}

// Lookup finds a topic by name or keyword.
func (t *HelpTable) Lookup(keyword string) *HelpTopic {
	return t.index[lower(strings.TrimSpace(keyword))]
}

// Names returns all topic names for the help index listing.
func (t *HelpTable) Names() []string {
	names := make([]string, len(t.topics))
	for i := range t.topics {
		names[i] = t.topics[i].Name
	}
	return names
}

func (t *HelpTable) Count() int { return len(t.topics) }
