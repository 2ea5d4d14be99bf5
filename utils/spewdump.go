package utils

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	// vertex and index buffers are large, the counts already describe them
	spewConfig.MaxDepth = 6
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

func Dump(a ...interface{}) {
	fmt.Println(spewConfig.Sdump(a...))
}

// ShortHex formats a digest or id for log lines.
func ShortHex(b []byte) string {
	if len(b) == 0 {
		return "<none>"
	}
	if len(b) > 8 {
		return fmt.Sprintf("%x..", b[:8])
	}
	return fmt.Sprintf("%x", b)
}
