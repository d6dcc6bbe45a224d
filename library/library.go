// Package library keeps finished melodies on disk as timestamped JSON files
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-melodycards/config"
	"go-melodycards/melody"
)

const stampLayout = "2006-01-02_15-04-05"

// Melody is one saved tune. The melody field matches the game state JSON, so
// either can be rendered.
type Melody struct {
	Name          string               `json:"name,omitempty"`
	Chapter       int                  `json:"chapter"`
	Title         string               `json:"title"`
	Score         int                  `json:"score"`
	Tempo         float64              `json:"tempo"`
	TimeSignature config.TimeSignature `json:"timeSignature"`
	Melody        []melody.Event       `json:"melody"`
	Saved         time.Time            `json:"saved"`
}

// SaveInfo represents a saved melody file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

type Library struct {
	dir string
	now func() time.Time
}

// DefaultDir returns ~/.config/go-melodycards/melodies
func DefaultDir() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "melodies"), nil
}

// Open uses dir, or the default directory when dir is empty. Nothing is
// created until the first save.
func Open(dir string) (*Library, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("melody library dir"))
		}
		dir = d
	}
	return &Library{dir: dir, now: time.Now}, nil
}

func (l *Library) Dir() string { return l.dir }

// Save writes m as <timestamp>[_name].json
func (l *Library) Save(m Melody) (SaveInfo, error) {
	if len(m.Melody) == 0 {
		return SaveInfo{}, fault.New("empty melody",
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("empty melody", "There is nothing to save yet."),
		)
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return SaveInfo{}, fault.Wrap(err, fmsg.With("create melody library"))
	}

	m.Saved = l.now().Truncate(time.Second)
	info := SaveInfo{Name: sanitizeFilename(m.Name), Timestamp: m.Saved}
	info.Filename = filename(m.Saved, info.Name)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return SaveInfo{}, fault.Wrap(err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, info.Filename), data, 0644); err != nil {
		return SaveInfo{}, fault.Wrap(err, fmsg.With("write melody"))
	}
	return info, nil
}

// List returns saves, newest first
func (l *Library) List() ([]SaveInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list melodies"))
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseFilename(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// Load reads a save, or the most recent one if filename is empty
func (l *Library) Load(filename string) (Melody, error) {
	if filename == "" {
		saves, err := l.List()
		if err != nil {
			return Melody{}, err
		}
		if len(saves) == 0 {
			return Melody{}, fault.New("no saved melodies",
				ftag.With(ftag.NotFound),
				fmsg.WithDesc("no saved melodies", "No melodies have been saved yet."),
			)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(l.dir, filepath.Base(filename)))
	if err != nil {
		if os.IsNotExist(err) {
			return Melody{}, fault.Wrap(err,
				ftag.With(ftag.NotFound),
				fmsg.WithDesc(fmt.Sprintf("melody %s", filename), "That melody does not exist."),
			)
		}
		return Melody{}, fault.Wrap(err, fmsg.With("read melody"))
	}

	var m Melody
	if err := json.Unmarshal(data, &m); err != nil {
		return Melody{}, fault.Wrap(err,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc(fmt.Sprintf("decode %s", filename), "The saved melody is damaged."),
		)
	}
	return m, nil
}

// Rename changes the name part of a save, keeping its timestamp
func (l *Library) Rename(oldFilename, newName string) (string, error) {
	info, ok := parseFilename(oldFilename)
	if !ok {
		return "", fault.New("invalid save filename", ftag.With(ftag.InvalidArgument))
	}
	newFilename := filename(info.Timestamp, sanitizeFilename(newName))
	if err := os.Rename(filepath.Join(l.dir, oldFilename), filepath.Join(l.dir, newFilename)); err != nil {
		return "", fault.Wrap(err, fmsg.With("rename melody"))
	}
	return newFilename, nil
}

// Delete removes a save
func (l *Library) Delete(filename string) error {
	if err := os.Remove(filepath.Join(l.dir, filepath.Base(filename))); err != nil {
		return fault.Wrap(err, fmsg.With("delete melody"))
	}
	return nil
}

func filename(ts time.Time, name string) string {
	if name == "" {
		return ts.Format(stampLayout) + ".json"
	}
	return ts.Format(stampLayout) + "_" + name + ".json"
}

// parseFilename reads 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
func parseFilename(name string) (SaveInfo, bool) {
	if !strings.HasSuffix(name, ".json") {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(name, ".json")
	if len(base) < len(stampLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.ParseInLocation(stampLayout, base[:len(stampLayout)], time.Local)
	if err != nil {
		return SaveInfo{}, false
	}
	info := SaveInfo{Filename: name, Timestamp: ts}
	if len(base) > len(stampLayout)+1 && base[len(stampLayout)] == '_' {
		info.Name = base[len(stampLayout)+1:]
	}
	return info, true
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer(
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	).Replace(name)
	return name
}
