package imagedir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RenameDateLayout date part of normalised photo names (ddmmyyyy)
const RenameDateLayout = "02012006"

var normalisedName = regexp.MustCompile(`^IMG_\d{8}_\d{4}(\..*)?$`)

// Renamed one file moved to its normalised name
type Renamed struct {
	From string
	To   string
}

// Numbering folder whose photos take the sequence numbers Start..End
type Numbering struct {
	Dir   string
	Start int
	End   int
}

// Renamer gives the photos of a folder names of the form IMG_ddmmyyyy_nnnn
type Renamer struct {
	log    logrus.FieldLogger
	dryRun bool
}

// NewRenamer creates a renamer. With dryRun set nothing is moved.
func NewRenamer(log logrus.FieldLogger, dryRun bool) *Renamer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Renamer{log: log, dryRun: dryRun}
}

// Rename walks the files of n.Dir in name order. Files already carrying a
// normalised name keep it but still use up a number; the folder stops once
// the numbers past n.End are reached. A file that cannot be moved is logged
// and skipped.
func (r *Renamer) Rename(n Numbering, day time.Time) ([]Renamed, error) {
	entries, err := os.ReadDir(n.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", n.Dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	log := r.log.WithField("dir", n.Dir)
	date := day.Format(RenameDateLayout)
	var out []Renamed
	seq := n.Start
	for _, e := range entries {
		if seq > n.End {
			break
		}
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if normalisedName.MatchString(name) {
			log.Debugf("%s already normalised", name)
			seq++
			continue
		}

		target := fmt.Sprintf("IMG_%s_%04d%s", date, seq, extension(name))
		seq++
		from, to := filepath.Join(n.Dir, name), filepath.Join(n.Dir, target)
		if _, err := os.Stat(to); err == nil {
			log.Warnf("cannot rename %s: %s exists", name, target)
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warnf("cannot rename %s", name)
			continue
		}
		if !r.dryRun {
			if err := os.Rename(from, to); err != nil {
				log.WithError(err).Warnf("cannot rename %s", name)
				continue
			}
		}
		log.Infof("renamed %s to %s", name, target)
		out = append(out, Renamed{From: from, To: to})
	}
	return out, nil
}

// extension text from the last dot on, empty for dot files and bare names
func extension(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i:]
	}
	return ""
}
