package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valter-silva-au/brainboard/internal/cache"
	"gopkg.in/yaml.v3"
)

// KnowledgeFiles reads the long-form markdown knowledge files. The whole
// directory is one cache region: any file changing invalidates the set.
type KnowledgeFiles struct {
	basePath string
	cache    *cache.Cache
}

// NewKnowledgeFiles creates a knowledge reader rooted at base.
func NewKnowledgeFiles(basePath string, c *cache.Cache) *KnowledgeFiles {
	return &KnowledgeFiles{basePath: basePath, cache: c}
}

// All returns file name to content for every markdown file in the knowledge
// directory. A missing directory yields an empty map.
func (k *KnowledgeFiles) All() (map[string]string, error) {
	v, err := k.cache.Get(cache.CategoryKnowledge, func() (any, error) {
		return readMarkdownDir(filepath.Join(k.basePath, KnowledgeDir))
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// DraftFiles reads the per-agent draft files, one markdown file per agent.
type DraftFiles struct {
	basePath string
	cache    *cache.Cache
}

// NewDraftFiles creates a drafts reader rooted at base.
func NewDraftFiles(basePath string, c *cache.Cache) *DraftFiles {
	return &DraftFiles{basePath: basePath, cache: c}
}

// All returns file name to content for every draft file.
func (d *DraftFiles) All() (map[string]string, error) {
	v, err := d.cache.Get(cache.CategoryDrafts, func() (any, error) {
		return readMarkdownDir(filepath.Join(d.basePath, DraftsDir))
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// ForAgent returns the draft content for one agent, or "" when absent.
func (d *DraftFiles) ForAgent(agentID string) (string, error) {
	all, err := d.All()
	if err != nil {
		return "", err
	}
	return all[agentID+".md"], nil
}

// readMarkdownDir loads every .md file of a directory into a name-to-content
// map. Missing directories degrade to an empty map, never an error.
func readMarkdownDir(dir string) (map[string]string, error) {
	out := make(map[string]string)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out[e.Name()] = string(data)
	}
	return out, nil
}

// Chapter is one chapter entry of the book metadata file.
type Chapter struct {
	Number int    `yaml:"number"`
	Title  string `yaml:"title"`
	Theme  string `yaml:"theme,omitempty"`
	Status string `yaml:"status,omitempty"`
}

// BookMeta is the top-level structure of book.yaml.
type BookMeta struct {
	Title    string    `yaml:"title"`
	Subtitle string    `yaml:"subtitle,omitempty"`
	Chapters []Chapter `yaml:"chapters"`
}

// BookStore reads the book/chapter metadata file.
type BookStore struct {
	basePath string
	cache    *cache.Cache
}

// NewBookStore creates a book metadata reader rooted at base.
func NewBookStore(basePath string, c *cache.Cache) *BookStore {
	return &BookStore{basePath: basePath, cache: c}
}

// Meta returns the parsed book metadata. A missing file yields an empty value.
func (b *BookStore) Meta() (*BookMeta, error) {
	v, err := b.cache.Get(cache.CategoryBook, func() (any, error) {
		meta := &BookMeta{}
		data, err := os.ReadFile(filepath.Join(b.basePath, BookFile))
		if err != nil {
			if os.IsNotExist(err) {
				return meta, nil
			}
			return nil, err
		}
		if err := yaml.Unmarshal(data, meta); err != nil {
			// Malformed metadata degrades to empty rather than failing
			// every dependent view.
			return &BookMeta{}, nil
		}
		sort.Slice(meta.Chapters, func(i, j int) bool {
			return meta.Chapters[i].Number < meta.Chapters[j].Number
		})
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*BookMeta), nil
}
