package fsutil

import "bytes"

// ManagedMarker tags files cppx generated and may regenerate (CMakeLists.txt,
// Doxyfile). Both formats use '#' comments.
const ManagedMarker = "# cppx:managed"

// IsManagedFile checks if data contains the cppx managed marker.
func IsManagedFile(data []byte) bool {
	return bytes.Contains(data, []byte(ManagedMarker))
}
