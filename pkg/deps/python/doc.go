// Package python collects PyPI distributions from poetry.lock or, for
// projects without one, from pinned requirements.txt lines. Names are
// normalized per PEP 503.
package python
