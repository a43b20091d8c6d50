package models

// BrowserPreference is the remembered backend that last initialized
// successfully. It is read at batch start to reorder candidates and written
// back when a different backend wins.
type BrowserPreference struct {
	BrowserName string  `json:"browser_name"`
	BrowserType string  `json:"browser_type"` // chrome, edge or firefox
	BinaryPath  *string `json:"binary_path"`
}

// IsZero reports whether no preference has been recorded yet.
func (p BrowserPreference) IsZero() bool {
	return p.BrowserName == "" && p.BrowserType == "" && p.BinaryPath == nil
}

// Equal compares two preferences field by field.
func (p BrowserPreference) Equal(o BrowserPreference) bool {
	if p.BrowserName != o.BrowserName || p.BrowserType != o.BrowserType {
		return false
	}
	switch {
	case p.BinaryPath == nil && o.BinaryPath == nil:
		return true
	case p.BinaryPath == nil || o.BinaryPath == nil:
		return false
	default:
		return *p.BinaryPath == *o.BinaryPath
	}
}

// Binary returns the binary path or "" when unset.
func (p BrowserPreference) Binary() string {
	if p.BinaryPath == nil {
		return ""
	}
	return *p.BinaryPath
}
