package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dwellwatch/internal/model"
)

const contentTypeJPEG = "image/jpeg"

// newRef builds an evidence reference of the form <identity>_<uuid>.
func newRef(id model.IdentityID) string {
	return fmt.Sprintf("%d_%s", id, uuid.NewString())
}

// validRef rejects references that could escape the evidence namespace.
func validRef(ref string) bool {
	return ref != "" && !strings.ContainsAny(ref, `/\`) && !strings.Contains(ref, "..")
}

// safeName turns a source identifier into a single path segment.
func safeName(source string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, source)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		return "_"
	}
	return name
}
