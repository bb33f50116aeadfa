package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateTimestampWithPrefix builds identifiers like "RSV-1718000000000-7f3a9c1d":
// sortable by creation time, unique via a uuid fragment.
func GenerateTimestampWithPrefix(prefix string) string {
	fragment := strings.Split(uuid.NewString(), "-")[0]

	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), fragment)
}
