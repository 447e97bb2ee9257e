package store

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/meetings"
)

// snapshot is the on-disk shape of the store.
type snapshot struct {
	Records []*meetings.MeetingRecord `yaml:"records"`
}

// SaveTo writes the full record set, revision history included, to a
// YAML snapshot file. A crawl run that follows a Load of the same file
// picks up exactly where the previous run left off.
func (s *Memory) SaveTo(path string) error {
	records, err := s.ListSince(time.Time{})
	if err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	data, err := yaml.Marshal(snapshot{Records: records})
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// LoadFrom replaces the store's contents with a previously saved
// snapshot. A missing file is not an error; the store simply starts
// empty.
func (s *Memory) LoadFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapIO("read", path, err)
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*meetings.MeetingRecord, len(snap.Records))
	for _, record := range snap.Records {
		if record == nil || record.ID == "" {
			continue
		}
		s.records[record.ID] = record
	}
	return nil
}
