package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateUniqueFilename returns a filename that does not collide with any
// existing file in dir, based on the original name with spaces replaced.
func GenerateUniqueFilename(dir, original string) string {
	safe := strings.ReplaceAll(filepath.Base(original), " ", "_")
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safe)

	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		ext := filepath.Ext(name)
		candidate = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i, ext)
	}
}
