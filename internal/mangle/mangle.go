// Package mangle derives the emitted labels for functions and object types
// from their namespace chain, keeping the IR emitter's naming scheme in one
// place so the lowerer and the IR emitter agree on it.
package mangle

import "strings"

// Type mangles a namespace chain plus an object name into one label, e.g.
// chain ["game","entities"], name "Player" -> "game__entities__Player".
func Type(chain []string, name string) string {
	if len(chain) == 0 {
		return name
	}
	return strings.Join(chain, "__") + "__" + name
}

// Func mangles a free function's chain and name, or (when owner != "") a
// method's chain, owning object name and method name.
func Func(chain []string, owner, name string) string {
	switch {
	case owner == "" && len(chain) == 0:
		return name
	case owner == "":
		return strings.Join(chain, "__") + "__" + name
	default:
		return Type(chain, owner) + "__" + name
	}
}
