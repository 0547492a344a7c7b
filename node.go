package asyncfs

// DirentType is the kind of a directory entry as reported by the OS cursor.
type DirentType uint8

const (
	DirentUnknown DirentType = iota
	DirentFile
	DirentDir
	DirentLink
	DirentFIFO
	DirentSocket
	DirentChar
	DirentBlock
)

var direntNames = [...]string{
	DirentUnknown: "UNKNOWN",
	DirentFile:    "FILE",
	DirentDir:     "DIR",
	DirentLink:    "LINK",
	DirentFIFO:    "FIFO",
	DirentSocket:  "SOCKET",
	DirentChar:    "CHAR",
	DirentBlock:   "BLOCK",
}

func (t DirentType) String() string {
	if int(t) >= len(direntNames) {
		return direntNames[DirentUnknown]
	}
	return direntNames[t]
}

func (t DirentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DirEntry is one name produced by a scandir call.
type DirEntry struct {
	Name string     `json:"name"`
	Type DirentType `json:"type"`
}
