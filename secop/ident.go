package secop

// MaxNameLength is the maximum length of a module, parameter or command name.
const MaxNameLength = 63

// ValidName reports whether name is a valid SECoP identifier:
// lowercase letters, digits and underscore, not starting with a digit,
// at most MaxNameLength characters.
func ValidName(name string) bool {
	if len(name) == 0 || len(name) > MaxNameLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_' || (c >= 'a' && c <= 'z'):
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SplitSpecifier splits a "module:parameter" specifier. The second return
// value is empty when no colon is present.
func SplitSpecifier(spec string) (module, accessible string) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == ':' {
			return spec[:i], spec[i+1:]
		}
	}
	return spec, ""
}
