package wavform

import (
	"fmt"
	"os"
)

// Identity pins a file to a point-in-time state. Cache entries and audit
// records are trusted only while the identity still matches the file on disk.
type Identity struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time_unix_nano"`
}

// IdentityFor stats the file and captures its current identity.
func IdentityFor(path string) (Identity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
	}, nil
}

// Key renders the identity as a stable cache key.
func (id Identity) Key() string {
	return fmt.Sprintf("%s|%d|%d", id.Path, id.Size, id.ModTime)
}

// Matches reports whether the file at the identity's path still carries the
// same size and modification time.
func (id Identity) Matches() bool {
	current, err := IdentityFor(id.Path)
	if err != nil {
		return false
	}
	return current.Size == id.Size && current.ModTime == id.ModTime
}

// MatchesAt reports whether the file now at path carries the recorded size
// and modification time, for records whose subject has been relocated.
func (id Identity) MatchesAt(path string) bool {
	current, err := IdentityFor(path)
	if err != nil {
		return false
	}
	return current.Size == id.Size && current.ModTime == id.ModTime
}
