package asyncfs

// Outcome is the decoded success payload of a completed operation. Which
// fields are meaningful depends on Kind.Shape():
//
//	ShapeNone    -
//	ShapeInt     N (fd for open, bytes for write/sendfile)
//	ShapeStat    Stat
//	ShapeString  Target
//	ShapeBytes   Data, N (len(Data) == N)
//	ShapeDirents Entries
type Outcome struct {
	Kind    OpKind     `json:"-"`
	N       int64      `json:"n,omitempty"`
	Stat    *Stat      `json:"stat,omitempty"`
	Target  string     `json:"target,omitempty"`
	Data    []byte     `json:"-"`
	Entries []DirEntry `json:"entries,omitempty"`
}

// Argc returns the number of success values the outcome carries:
// 0 for void ops, 2 for read and 1 for everything else.
func (o *Outcome) Argc() int {
	if o == nil {
		return 0
	}
	switch o.Kind.Shape() {
	case ShapeNone:
		return 0
	case ShapeBytes:
		return 2
	default:
		return 1
	}
}

// Values returns the success values in positional order.
func (o *Outcome) Values() []any {
	if o == nil {
		return nil
	}
	switch o.Kind.Shape() {
	case ShapeInt:
		return []any{o.N}
	case ShapeStat:
		return []any{o.Stat}
	case ShapeString:
		return []any{o.Target}
	case ShapeBytes:
		return []any{o.Data, o.N}
	case ShapeDirents:
		return []any{o.Entries}
	}
	return nil
}
