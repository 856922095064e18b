package python

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/matzehuels/locallore/pkg/deps"
)

// pinned matches "name==version" with optional extras and whitespace.
var pinned = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*==\s*([^\s;,#]+)`)

func parseRequirements(data []byte) []deps.Dependency {
	set := deps.NewSet()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		m := pinned.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		set.Add(deps.Dependency{
			Identity: deps.Identity{Ecosystem: deps.PyPI, Name: Normalize(m[1]), Version: m[2]},
			Manifest: "requirements.txt",
		})
	}
	return set.Slice()
}
