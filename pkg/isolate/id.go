package isolate

// ID identifies one registered isolate for the lifetime of its
// registration (spec §3.2, GLOSSARY "Isolate id"). Zero is a valid,
// assigned id; Uninitialized is the sentinel the FFI layer returns from
// register_isolate when no router exists to register with.
type ID int64

// Uninitialized is the sentinel id meaning "router not initialized"
// (cmd/libbridge's register_isolate).
const Uninitialized ID = -1

// Valid reports whether id differs from the Uninitialized sentinel. It
// does not check that id is currently registered.
func (id ID) Valid() bool { return id != Uninitialized }
