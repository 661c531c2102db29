package domain

// Source represents where a seen-ledger entry was first sighted.
type Source string

const (
	SourceAPI  Source = "api"
	SourceFile Source = "file"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a valid value.
func (s Source) IsValid() bool {
	return s == SourceAPI || s == SourceFile
}
