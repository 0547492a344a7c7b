package asyncfs

import "time"

// Stat is the decoded attribute record for stat, lstat and fstat.
// Blksize and Blocks are nil on platforms that do not expose them.
type Stat struct {
	Dev       uint64    `json:"dev"`
	Ino       uint64    `json:"ino"`
	Mode      uint32    `json:"mode"`
	Nlink     uint64    `json:"nlink"`
	Uid       uint32    `json:"uid"`
	Gid       uint32    `json:"gid"`
	Rdev      uint64    `json:"rdev"`
	Size      int64     `json:"size"`
	Atime     time.Time `json:"atime"`
	Mtime     time.Time `json:"mtime"`
	Ctime     time.Time `json:"ctime"`
	Birthtime time.Time `json:"birthtime"`
	Blksize   *int64    `json:"blksize,omitempty"`
	Blocks    *int64    `json:"blocks,omitempty"`

	IsFile        bool `json:"is_file"`
	IsDirectory   bool `json:"is_directory"`
	IsCharDevice  bool `json:"is_character_device"`
	IsBlockDevice bool `json:"is_block_device"`
	IsFIFO        bool `json:"is_fifo"`
	IsSymlink     bool `json:"is_symbolic_link"`
	IsSocket      bool `json:"is_socket"`
}

// Perm returns the permission bits of Mode.
func (s *Stat) Perm() uint32 {
	return s.Mode & 0o7777
}
