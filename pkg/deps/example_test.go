package deps_test

import (
	"fmt"

	"github.com/matzehuels/locallore/pkg/deps"
)

func ExampleIdentity_String() {
	id := deps.Identity{Ecosystem: deps.PyPI, Name: "requests", Version: "2.31.0"}
	fmt.Println(id)
	// Output: pypi:requests:2.31.0
}

func ExampleSet() {
	set := deps.NewSet()
	set.Add(deps.New(deps.NPM, "react", "18.2.0"))
	set.Add(deps.New(deps.NPM, "react", "18.2.0"))
	set.Add(deps.New(deps.Cargo, "react", "18.2.0"))
	fmt.Println(set.Len())
	// Output: 2
}
