package utils

import "fmt"

// FormatBytes renders a byte count the way the upload list displays it:
// two decimals with a binary unit, e.g. 1048576 -> "1.00 MB".
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.2f %s", float64(size)/float64(div), units[exp])
}
