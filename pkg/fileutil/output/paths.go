package output

import "bytes"

// PathsFormatter writes the full path of each ranked file, largest first,
// each followed by Sep. Use "paths" for newline and "null" for NUL
// separated output (xargs -0).
type PathsFormatter struct {
	Sep byte
}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, e := range r.Entries {
		w.WriteString(e.Path)
		w.WriteByte(f.Sep)
	}
	return nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{Sep: '\n'}
	})
	Register("null", func() Formatter {
		return &PathsFormatter{Sep: 0}
	})
}

var _ Formatter = (*PathsFormatter)(nil)
