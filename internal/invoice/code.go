package invoice

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCode renders the invoice code for seq: user name followed by the
// sequence zero padded to six digits. Wider sequences are not truncated.
func FormatCode(userName string, seq uint64) string {
	return fmt.Sprintf("%s%06d", userName, seq)
}

// NextCode derives the code following lastCode. An empty lastCode starts the
// sequence at 1; a suffix that is not an unsigned integer counts as 0.
func NextCode(userName, lastCode string) string {
	if lastCode == "" {
		return FormatCode(userName, 1)
	}
	suffix := strings.TrimPrefix(lastCode, userName)
	n, err := strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		n = 0
	}
	return FormatCode(userName, n+1)
}
