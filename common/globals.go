package common

// PyrsVersion is the current pyrs version as a string.
const PyrsVersion string = "1.0.0"

// ConfigFileName is the name of the optional project configuration file that
// is looked up next to the source file being transpiled.
const ConfigFileName string = "pyrs.toml"

// CrateName is the name of the generated Cargo package.  It is also the name
// of the produced executable.
const CrateName string = "romapyrs_temp"

// DefaultEntryFunc is the function invoked by the synthesized entry point when
// no other function is designated.
const DefaultEntryFunc string = "fib"

// DefaultEntryArg is the fixed literal argument passed to the entry function.
const DefaultEntryArg int64 = 35

// IsValidIdentifier returns whether idstr is a valid function name.
func IsValidIdentifier(idstr string) bool {
	if idstr == "" {
		return false
	}

	if idstr[0] == '_' || ('a' <= idstr[0] && idstr[0] <= 'z') || ('A' <= idstr[0] && idstr[0] <= 'Z') {
		for _, c := range idstr[1:] {
			if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
				continue
			}

			return false
		}

		return true
	}

	return false
}
