package saves

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/cbodonnell/orderstone/pkg/log"
)

const (
	MinNameLength    = 8
	MaxNameLength    = 20
	DefaultMaxWorlds = 12

	extJSON = ".json"
	extZstd = ".json.zst"

	// seeds stay below 2^53 so they survive a round trip through JSON numbers
	maxSeed = 1 << 53
)

var (
	ErrInvalidName   = errors.New("invalid world name")
	ErrWorldExists   = errors.New("world already exists")
	ErrWorldNotFound = errors.New("world not found")
	ErrTooManyWorlds = errors.New("too many worlds")
	ErrNullDocument  = errors.New("save document is null")
)

// Summary describes a save file without its block data.
type Summary struct {
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	ID         string    `json:"id,omitempty"`
	Seed       int64     `json:"seed"`
	Created    time.Time `json:"created"`
	LastPlayed time.Time `json:"last_played"`
	Modified   time.Time `json:"modified"`
	Players    int       `json:"players"`
	Blocks     int       `json:"blocks"`
	Compressed bool      `json:"compressed"`
	Path       string    `json:"path"`
	Error      string    `json:"error,omitempty"`
}

// Store manages the world save files in one directory.
type Store struct {
	lock      sync.Mutex
	dir       string
	compress  bool
	maxWorlds int
	now       func() time.Time
}

type NewStoreOptions struct {
	Dir       string
	Compress  bool
	MaxWorlds int
	// Now defaults to time.Now
	Now func() time.Time
}

func NewStore(opts NewStoreOptions) *Store {
	if opts.MaxWorlds <= 0 {
		opts.MaxWorlds = DefaultMaxWorlds
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		dir:       opts.Dir,
		compress:  opts.Compress,
		maxWorlds: opts.MaxWorlds,
		now:       opts.Now,
	}
}

func (s *Store) Dir() string {
	return s.dir
}

// SanitizeName keeps letters, digits, spaces, hyphens and underscores.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ValidateName sanitizes name and checks its length.
func ValidateName(name string) (string, error) {
	clean := SanitizeName(name)
	if n := len([]rune(clean)); n < MinNameLength || n > MaxNameLength {
		return "", fmt.Errorf("%w: %q must be %d to %d characters", ErrInvalidName, clean, MinNameLength, MaxNameLength)
	}
	return clean, nil
}

// Slug is the file name stem of a world.
func Slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(SanitizeName(name), " ", "_"))
}

func (s *Store) paths(slug string) (plain, compressed string) {
	return filepath.Join(s.dir, slug+extJSON), filepath.Join(s.dir, slug+extZstd)
}

// find returns the existing file for a world, preferring the compressed one.
func (s *Store) find(name string) (string, error) {
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("%w: %q", ErrWorldNotFound, name)
	}
	plain, compressed := s.paths(slug)
	for _, p := range []string{compressed, plain} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrWorldNotFound, name)
}

func (s *Store) files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("saves: read dir: %w", err)
	}
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		var slug string
		switch {
		case strings.HasSuffix(name, extZstd):
			slug = strings.TrimSuffix(name, extZstd)
		case strings.HasSuffix(name, extJSON):
			slug = strings.TrimSuffix(name, extJSON)
		default:
			continue
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, slug)
	}
	sort.Strings(out)
	return out, nil
}

// Create writes a new empty world. A zero seed picks a random one.
func (s *Store) Create(name string, seed int64) (*WorldSave, error) {
	clean, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	slugs, err := s.files()
	if err != nil {
		return nil, err
	}
	if len(slugs) >= s.maxWorlds {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyWorlds, s.maxWorlds)
	}
	slug := Slug(clean)
	for _, existing := range slugs {
		if existing == slug {
			return nil, fmt.Errorf("%w: %q", ErrWorldExists, clean)
		}
	}

	if seed == 0 {
		seed = rand.Int63n(maxSeed-1) + 1
	}
	seed %= maxSeed

	save := NewWorldSave(clean, seed, s.now())
	if err := s.write(save); err != nil {
		return nil, err
	}
	log.Info("Created world %q with seed %d", clean, seed)
	return save, nil
}

// List returns every world, most recently modified first. Unreadable files
// are listed with their error.
func (s *Store) List() ([]Summary, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	slugs, err := s.files()
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(slugs))
	for _, slug := range slugs {
		path, err := s.find(slug)
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		summary := Summary{
			Name:       slug,
			Slug:       slug,
			Modified:   info.ModTime(),
			Path:       path,
			Compressed: strings.HasSuffix(path, extZstd),
		}
		save, err := s.read(path)
		if err != nil {
			log.Warn("Failed to read world %s: %v", path, err)
			summary.Error = err.Error()
			summaries = append(summaries, summary)
			continue
		}
		if save.Name != "" {
			summary.Name = save.Name
		}
		summary.ID = save.ID.String()
		summary.Seed = save.Seed
		summary.Created = save.Created
		summary.LastPlayed = save.LastPlayed
		summary.Players = len(save.Players)
		summary.Blocks = len(save.Blocks)
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Modified.After(summaries[j].Modified)
	})
	return summaries, nil
}

// Load reads, migrates and validates a world by name.
func (s *Store) Load(name string) (*WorldSave, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	path, err := s.find(name)
	if err != nil {
		return nil, err
	}
	save, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if save.Name == "" {
		save.Name = SanitizeName(name)
	}
	if save.Created.IsZero() {
		if info, err := os.Stat(path); err == nil {
			save.Created = info.ModTime().UTC()
		}
	}
	return save, nil
}

func (s *Store) read(path string) (*WorldSave, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("saves: read %s: %w", filepath.Base(path), err)
	}
	save, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return save, nil
}

// Save writes the world atomically and stamps LastPlayed.
func (s *Store) Save(save *WorldSave) error {
	if SanitizeName(save.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	save.LastPlayed = s.now().UTC()
	return s.write(save)
}

func (s *Store) write(save *WorldSave) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("saves: create dir: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := Encode(buf, save, s.compress); err != nil {
		return err
	}

	plain, compressed := s.paths(Slug(save.Name))
	target, stale := plain, compressed
	if s.compress {
		target, stale = compressed, plain
	}

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("saves: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("saves: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("saves: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saves: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("saves: replace %s: %w", filepath.Base(target), err)
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to remove stale save %s: %v", stale, err)
	}
	return nil
}

// Delete removes every file of a world.
func (s *Store) Delete(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.find(name); err != nil {
		return err
	}
	plain, compressed := s.paths(Slug(name))
	for _, p := range []string{plain, compressed} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("saves: delete %s: %w", filepath.Base(p), err)
		}
	}
	log.Info("Deleted world %q", name)
	return nil
}
