package render

import (
	"fmt"

	"github.com/dop251/goja"
)

// CheckScript compiles page JS without running it and returns a
// human-readable warning when the source does not parse. Generated
// scripts occasionally come out truncated; catching that here beats a
// blank preview with a console error nobody sees. A parse failure
// never blocks the commit.
func CheckScript(pageID, src string) string {
	if _, err := goja.Compile(pageID+".js", src, false); err != nil {
		return fmt.Sprintf("script for page %q does not compile: %v", pageID, err)
	}
	return ""
}
