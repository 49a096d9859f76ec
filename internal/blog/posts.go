// Package blog serves markdown articles with YAML frontmatter from disk.
package blog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/anempire/anempire-web/internal/shared"
)

// Post statuses. Coming-soon posts are listed but their bodies stay hidden.
const (
	StatusPublished  = "published"
	StatusComingSoon = "comingSoon"
)

// Frontmatter is the editable metadata block at the top of each post file.
type Frontmatter struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle,omitempty"`
	Year     int    `yaml:"year,omitempty"`
	Order    int    `yaml:"order"`
	Status   string `yaml:"status"`
}

// Post is one article.
type Post struct {
	Slug string
	Frontmatter
	Body string
}

// Published reports whether the body may be shown.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}

// Store reads and updates posts on the filesystem. Writes are serialised;
// reads go straight to disk so edits show up without a restart.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore builds Store instance over the given content directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// List returns all posts sorted by their order field.
func (s *Store) List() ([]Post, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var posts []Post
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		post, err := s.read(entry.Name())
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Order < posts[j].Order
	})
	return posts, nil
}

// Get returns one post by slug.
func (s *Store) Get(slug string) (Post, error) {
	if !validSlug(slug) {
		return Post{}, shared.ErrNotFound
	}
	post, err := s.read(slug + ".md")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Post{}, shared.ErrNotFound
		}
		return Post{}, err
	}
	return post, nil
}

// Update rewrites a post's frontmatter, preserving the body untouched.
func (s *Store) Update(slug string, meta Frontmatter) (Post, error) {
	if meta.Status != StatusPublished && meta.Status != StatusComingSoon {
		return Post{}, errors.New("blog: invalid status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	post, err := s.Get(slug)
	if err != nil {
		return Post{}, err
	}
	post.Frontmatter = meta

	raw, err := yaml.Marshal(meta)
	if err != nil {
		return Post{}, err
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(raw)
	b.WriteString("---\n")
	b.WriteString(post.Body)

	if err := os.WriteFile(filepath.Join(s.dir, slug+".md"), b.Bytes(), 0o644); err != nil {
		return Post{}, err
	}
	return post, nil
}

func (s *Store) read(name string) (Post, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return Post{}, err
	}
	meta, body, err := splitFrontmatter(raw)
	if err != nil {
		return Post{}, err
	}
	return Post{
		Slug:        strings.TrimSuffix(name, ".md"),
		Frontmatter: meta,
		Body:        body,
	}, nil
}

func splitFrontmatter(raw []byte) (Frontmatter, string, error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return Frontmatter{}, "", errors.New("blog: missing frontmatter")
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return Frontmatter{}, "", errors.New("blog: unterminated frontmatter")
	}
	var meta Frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return Frontmatter{}, "", err
	}
	return meta, rest[end+len("\n---\n"):], nil
}

func validSlug(slug string) bool {
	if slug == "" {
		return false
	}
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}
